// Package stdlib holds the bundled native class sources — Collection,
// Stack, Queue and a Math facade — that spec.md §6 calls an external
// collaborator: ordinary source text the compiler prepends ahead of
// user code, not a Go-level intrinsic dispatch table. Each class is
// written in the same dialect the parser accepts, so it goes through
// the normal lexer/parser/validator/evaluator pipeline exactly like
// user-authored code.
package stdlib

import "strings"

// CollectionSource backs `new Collection()`: a growable, order-preserving
// list with explicit add/get/set/remove/size operations, tracking its own
// count rather than relying on the array arena's grow-only length.
const CollectionSource = `
class Collection() {
	this.items = []
	this.count = 0

	function addItem(item) {
		this.items[this.count] = item
		this.count = this.count + 1
	}

	function getItem(index) {
		return this.items[index]
	}

	function setItem(index, item) {
		this.items[index] = item
	}

	function removeItem(index) {
		i = index
		while i < this.count - 1 {
			this.items[i] = this.items[i + 1]
			i = i + 1
		}
		this.count = this.count - 1
	}

	function size() {
		return this.count
	}

	function isEmpty() {
		return this.count == 0
	}
}
`

// StackSource backs `new Stack()`: LIFO push/pop/peek over the same
// count-tracked backing array Collection uses.
const StackSource = `
class Stack() {
	this.items = []
	this.count = 0

	function push(item) {
		this.items[this.count] = item
		this.count = this.count + 1
	}

	function pop() {
		this.count = this.count - 1
		return this.items[this.count]
	}

	function peek() {
		return this.items[this.count - 1]
	}

	function size() {
		return this.count
	}

	function isEmpty() {
		return this.count == 0
	}
}
`

// QueueSource backs `new Queue()`: FIFO enqueue/dequeue, tracking a head
// index into the backing array rather than shifting elements on every
// dequeue.
const QueueSource = `
class Queue() {
	this.items = []
	this.count = 0
	this.head = 0

	function enqueue(item) {
		this.items[this.head + this.count] = item
		this.count = this.count + 1
	}

	function dequeue() {
		item = this.items[this.head]
		this.head = this.head + 1
		this.count = this.count - 1
		return item
	}

	function peek() {
		return this.items[this.head]
	}

	function size() {
		return this.count
	}

	function isEmpty() {
		return this.count == 0
	}
}
`

// MathSource backs the `Math.*` facade: a static class (one shared
// instance, never constructed by user code) whose methods are plain
// arithmetic over the language's own operators. sqrt uses a fixed number
// of Newton-Raphson iterations rather than a native intrinsic, since the
// core evaluator has no floating-point-builtin escape hatch by design
// (spec.md §1 keeps the standard library an external collaborator).
const MathSource = `
static class Math() {
	function abs(x) {
		if x < 0 {
			return -x
		}
		return x
	}

	function floor(x) {
		result = x - (x mod 1)
		if x < 0 and result <> x {
			result = result - 1
		}
		return result
	}

	function ceil(x) {
		result = this.floor(x)
		if result <> x {
			result = result + 1
		}
		return result
	}

	function round(x) {
		return this.floor(x + 0.5)
	}

	function min(a, b) {
		if a < b {
			return a
		}
		return b
	}

	function max(a, b) {
		if a > b {
			return a
		}
		return b
	}

	function sqrt(x) {
		if x == 0 {
			return 0
		}
		guess = x
		i = 0
		while i < 40 {
			guess = (guess + x / guess) / 2
			i = i + 1
		}
		return guess
	}

	function pow(base, exponent) {
		return base ^ exponent
	}
}
`

// bundle is the concatenation order spec.md §6 names: Collection, Stack,
// Queue, then the Math facade, each separated by a newline.
var bundle = strings.Join([]string{CollectionSource, StackSource, QueueSource, MathSource}, "\n")

// Prepend concatenates the bundled class sources ahead of userSource and
// returns the combined text plus the number of lines the bundle occupies,
// so a caller can subtract that count back off a diagnostic's line number
// to recover the user-visible line (spec.md §6).
func Prepend(userSource string) (combined string, prependedLines int) {
	return bundle + "\n" + userSource, strings.Count(bundle, "\n") + 1
}
