// Package gdbmi parses the output of gdb's machine interface
// (--interpreter=mi2/mi3) into records.
//
// A Framer accepts raw chunks as they are read from one of gdb's output
// streams and hands every complete line to a Parser:
//
//	f := gdbmi.NewFramer(gdbmi.NewParser(logger))
//	for {
//		n, err := stdout.Read(buf)
//		records, perr := f.Ingest(buf[:n])
//		...
//	}
//
// Each line becomes one Record: a result (^done,...), an async notification
// (*stopped,... or =thread-created,...), console/log/target stream text
// (~"...", &"...", @"..."), the (gdb) prompt, or plain output of the program
// being debugged. Result and notification payloads are decoded into Values.
//
// gdb sometimes emits slightly malformed output under load. The parser logs
// and skips structural damage inside a payload instead of failing the line;
// only strings whose escapes cannot be decoded produce an error.
package gdbmi
