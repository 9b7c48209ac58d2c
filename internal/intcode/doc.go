/* Package intcode implements a small integer-encoded virtual machine, and the
ports that let many machines talk to each other.

A program image is a sequence of int64 words. Each Engine copies the image into
private memory and executes it from address 0, one instruction at a time.

An instruction word encodes its opcode in its two low decimal digits, and one
addressing mode per parameter in the digits above that, read from the hundreds
digit upward:

	1002  =>  op 02 (mul), parameter modes 0, 1, 0 (pos, imm, pos)

Opcodes:

	 1 add      a b -> c     c = a + b
	 2 mul      a b -> c     c = a * b
	 3 in       -> a         a = next value from input
	 4 out      a            send a to output
	 5 jt       a b          if a != 0 jump to b
	 6 jf       a b          if a == 0 jump to b
	 7 lt       a b -> c     c = 1 if a < b else 0
	 8 eq       a b -> c     c = 1 if a == b else 0
	 9 arb      a            relative base += a
	99 halt

Modes:

	0 pos  the parameter is an address
	1 imm  the parameter is the value itself; never a write target
	2 rel  the parameter is an offset from the relative base

Memory is sparse and unbounded by default: any address never written reads as
0. The Capabilities type restricts an engine to an older subset of the
machine, such as the two-opcode fixed-memory variant.

Engines exchange values over Ports. A Port has exactly one writer and one
reader; the writer Closes it when done, and the reader Hangs it up when done.
An engine that tries to output onto a hung up port has nobody left to talk to:
it halts in the HungUp state, reporting that final value as its result. This
is how the last machine in a feedback ring delivers its answer.
*/
package intcode
