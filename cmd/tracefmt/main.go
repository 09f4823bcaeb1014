// tracefmt reads a flattened textual stack trace on stdin and re-renders it
// as canonical frame lines, optionally remapping positions through a source
// map. It is a development companion to the tracebox server: the same parser
// and formatter the server uses, without a sandbox in the way.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/yousuf/tracebox/internal/stackparse"
	"github.com/yousuf/tracebox/internal/stacktrace"
)

func main() {
	mapPath := flag.String("map", "", "path to a source map to remap frames through")
	flag.Parse()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read stdin: %v", err)
	}

	frames := stackparse.ParseTrace(string(input))
	if len(frames) == 0 {
		log.Fatal("No stack frames found in input")
	}

	if *mapPath != "" {
		sourceMap, err := os.ReadFile(*mapPath)
		if err != nil {
			log.Fatalf("Failed to read source map: %v", err)
		}
		frames, err = stackparse.Remap(string(sourceMap), frames)
		if err != nil {
			log.Fatalf("Failed to remap frames: %v", err)
		}
	}

	fmt.Println(stacktrace.Capture(frames).Format())
}
