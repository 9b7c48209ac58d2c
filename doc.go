/* Command intcode runs Intcode programs: alone, as chains and rings of
amplifiers, or in search of a patch.

Intcode programs are lists of signed integers. The machine reads an
instruction word at its program counter; the low two decimal digits name an
operation, and each higher digit gives the addressing mode of one parameter:
position, immediate, or relative to a movable base. Programs read input and
write output one integer at a time, and may grow their memory without bound.

Section 1: running a program

	intcode run -in 5 program.txt

Runs program.txt once, with 5 as its only input, printing each output on its
own line. Memory may be patched beforehand with -patch 1=12,2=2, inspected
afterwards with -peek 0, and saved with -dump. An older, smaller machine may
be selected with -caps arithmetic or -caps classic.

Section 2: amplifiers

	intcode amplify -settings 0,1,2,3,4 program.txt
	intcode amplify -ring -settings 5,6,7,8,9 program.txt

Runs one copy of the program per phase setting, all at once, each feeding its
output to the next. Every amplifier first reads its phase setting; the first
then reads the seed signal (-seed, 0 by default). The largest final signal over
every ordering of the settings is printed. With -ring, the last amplifier feeds
back into the first, and the pipeline runs until they all halt.

Section 3: patch search

	intcode patch -target 19690720 program.txt

Tries every noun and verb in -range, stored at the -addrs addresses, until
the program leaves the target at address 0, then prints 100*noun+verb.

Images named with a .zst suffix are read, and dumped, zstd compressed. Global
flags -timeout, -trace and -mem-limit apply to every command.
*/
package main
