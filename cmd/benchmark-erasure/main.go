package main

import (
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ethp2p/erasure"
)

// BenchmarkResult stores timing data for one technique
type BenchmarkResult struct {
	Technique  string        `json:"technique"`
	K          int           `json:"k"`
	M          int           `json:"m"`
	W          int           `json:"w"`
	BlockSize  int           `json:"block_size"`
	Iterations int           `json:"iterations"`
	Encode     time.Duration `json:"encode_ns"` // Average time for Encode
	Decode     time.Duration `json:"decode_ns"` // Average time for Decode of m erasures
}

func main() {
	k := flag.Int("k", 4, "Number of data blocks")
	m := flag.Int("m", 2, "Number of parity blocks")
	w := flag.Int("w", 8, "Word size in bits")
	blockSize := flag.Int("block-size", 1<<20, "Block size in bytes")
	packetSize := flag.Int("packet-size", 1024, "Packet size in bytes for bit-matrix techniques")
	iterations := flag.Int("iterations", 100, "Number of iterations per benchmark")
	outputFile := flag.String("output", "erasure_benchmark.json", "Output file for benchmark results")
	flag.Parse()

	superPacket := *w * *packetSize
	if *blockSize%superPacket != 0 {
		fmt.Fprintf(os.Stderr, "Error: Block size %d must be a multiple of w*packet-size (%d)\n",
			*blockSize, superPacket)
		os.Exit(1)
	}

	fmt.Printf("Benchmarking erasure coding with:\n")
	fmt.Printf("  k: %d, m: %d, w: %d\n", *k, *m, *w)
	fmt.Printf("  Block size: %d bytes\n", *blockSize)
	fmt.Printf("  Packet size: %d bytes\n", *packetSize)
	fmt.Printf("  Iterations: %d\n", *iterations)
	fmt.Println()

	data := make([][]byte, *k)
	for i := range data {
		data[i] = make([]byte, *blockSize)
		rand.Read(data[i])
	}

	techniques := []erasure.Technique{
		erasure.Matrix,
		erasure.BitMatrix,
		erasure.Schedule,
	}
	if *m == 2 {
		techniques = append(techniques, erasure.ScheduleCache)
	}

	var results []BenchmarkResult
	for _, tech := range techniques {
		ec, err := erasure.NewBuilder().
			K(*k).M(*m).W(*w).
			PacketSize(*packetSize).
			CodingMethod(erasure.Cauchy).
			Technique(tech).
			Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to build %s codec: %v\n", tech, err)
			os.Exit(1)
		}

		parity := make([][]byte, *m)
		for i := range parity {
			parity[i] = make([]byte, *blockSize)
		}

		fmt.Printf("Benchmarking %s Encode... ", tech)
		start := time.Now()
		for i := 0; i < *iterations; i++ {
			if err := ec.Encode(data, parity); err != nil {
				fmt.Fprintf(os.Stderr, "Encode failed: %v\n", err)
				os.Exit(1)
			}
		}
		encodeAvg := time.Since(start) / time.Duration(*iterations)
		fmt.Printf("%v per call\n", encodeAvg)

		// Erase the first m blocks each round and repair them.
		erased := make([]int, *m)
		for i := range erased {
			erased[i] = i
		}
		fmt.Printf("Benchmarking %s Decode... ", tech)
		start = time.Now()
		for i := 0; i < *iterations; i++ {
			for _, e := range erased {
				clear(data[e])
			}
			if err := ec.Decode(data, parity, erased); err != nil {
				fmt.Fprintf(os.Stderr, "Decode failed: %v\n", err)
				os.Exit(1)
			}
		}
		decodeAvg := time.Since(start) / time.Duration(*iterations)
		fmt.Printf("%v per call\n", decodeAvg)

		results = append(results, BenchmarkResult{
			Technique:  tech.String(),
			K:          *k,
			M:          *m,
			W:          *w,
			BlockSize:  *blockSize,
			Iterations: *iterations,
			Encode:     encodeAvg,
			Decode:     decodeAvg,
		})
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to marshal results: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputFile, out, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *outputFile, err)
		os.Exit(1)
	}
	fmt.Printf("\nResults written to %s\n", *outputFile)
}
