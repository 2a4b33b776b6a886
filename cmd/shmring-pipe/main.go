// Command shmring-pipe pipes stdin into a ring buffer file, or a ring
// buffer file out to stdout, so two independent invocations of this same
// binary — one with -write, one with -read — can be wired together as
// the two ends of a cross-process pipe.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kroki-go/shmring"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("shmring-pipe: ")

	var (
		read     bool
		write    bool
		nonBlock bool
		size     uint
		showVer  bool
	)
	flag.BoolVar(&read, "read", false, "read data out of the ring buffer file to stdout")
	flag.BoolVar(&read, "r", false, "shorthand for -read")
	flag.BoolVar(&write, "write", false, "write data from stdin into the ring buffer file")
	flag.BoolVar(&write, "w", false, "shorthand for -write")
	flag.BoolVar(&nonBlock, "non-block", false, "use non-blocking operations")
	flag.BoolVar(&nonBlock, "n", false, "shorthand for -non-block")
	flag.UintVar(&size, "size", 0, "buffer capacity in bytes (0 to join an existing buffer)")
	flag.UintVar(&size, "s", 0, "shorthand for -size")
	flag.BoolVar(&showVer, "version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTIONS] RINGBUFFERFILE\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVer {
		fmt.Println("shmring-pipe (github.com/kroki-go/shmring)")
		return
	}

	if size > 0xffffffff {
		log.Fatalf("size %d is not valid (should be in range 0-4294967295)", size)
	}
	if read == write {
		flag.Usage()
		os.Exit(1)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	filename := flag.Arg(0)

	h, err := shmring.Open(filename, uint32(size))
	if err != nil {
		log.Fatalf("opening %s: %v", filename, err)
	}

	if write {
		if err := pipeIn(h, os.Stdin, nonBlock); err != nil {
			log.Fatal(err)
		}
	} else {
		if err := pipeOut(h, os.Stdout, nonBlock); err != nil {
			log.Fatal(err)
		}
	}

	if err := h.Close(); err != nil {
		log.Fatal(err)
	}
}

// minRequest returns the minimum GetFree/GetData size used to request
// either blocking (1 byte, wait for at least something) or non-blocking
// (0 bytes, never wait) behavior, matching the original driver's
// convention.
func minRequest(nonBlock bool) uint32 {
	if nonBlock {
		return 0
	}
	return 1
}

func pipeIn(h *shmring.Handle, in io.Reader, nonBlock bool) error {
	for {
		size := minRequest(nonBlock)
		buf := h.GetFree(&size)
		if size == 0 {
			return nil
		}
		n, err := in.Read(buf)
		if n == 0 {
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			return nil
		}
		h.Add(uint32(n))
	}
}

func pipeOut(h *shmring.Handle, out io.Writer, nonBlock bool) error {
	for {
		size := minRequest(nonBlock)
		data := h.GetData(&size)
		if size == 0 {
			return nil
		}
		if _, err := out.Write(data); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
		h.Del(size)
	}
}
