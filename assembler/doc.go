/*

Process of assembling

Assembly Text ->
	parse (line by line) ->
Tokens ->
	check ->
Tokens ->
	build ->
Sections (asm) ->
	obj ->
Relocatable Object (ELF64) ->
	link ->
Binary Executable

*/
package assembler
