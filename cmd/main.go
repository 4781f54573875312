/*
 * Unsize - Zero-Copy Resizable Account Layouts
 *
 * Copyright 2024 Star Frame Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/starframe/unsize"
)

type (
	valuesPtr   = *unsize.ListPtr[uint64]
	valuesOwned = []uint64
)

var valuesType = unsize.NewAccountType[valuesPtr, valuesOwned](
	"Values",
	unsize.ListOf[uint64](unsize.U64, unsize.LenU32),
)

func main() {
	var maxGrowth int
	var numElements int
	var verbose bool

	pflag.IntVar(&maxGrowth, "growth", unsize.MaxPermittedDataIncrease, "growth ceiling in bytes")
	pflag.IntVar(&numElements, "count", 500, "number of elements to push")
	pflag.BoolVar(&verbose, "verbose", false, "verbose output")

	pflag.Parse()

	data, err := unsize.EncodeInit(valuesType, unsize.DefaultInit{})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	arena := unsize.NewArenaWithConfig(data, unsize.ArenaConfig{OriginalLen: len(data), MaxGrowth: maxGrowth})

	fmt.Printf(
		"Pushing %d elements (u64) into %s with original length %d and growth ceiling %d ...\n",
		numElements,
		valuesType,
		len(data),
		maxGrowth,
	)

	w, err := unsize.NewExclusiveWrapper[*unsize.AccountPtr[valuesPtr], valuesOwned](arena, valuesType)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	list := w.Data().Inner
	for i := 0; i < numElements; i++ {
		err := list.Push(uint64(i))
		var growthErr *unsize.GrowthLimitError
		if errors.As(err, &growthErr) {
			fmt.Printf("stopped after %d elements: %s\n", i, err)
			break
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	count := list.Len()
	w.Close()

	config := arena.Config()
	fmt.Printf(
		"discriminator %s, %d elements, %d bytes, %d bytes of growth left, fingerprint %016x\n",
		valuesType.Discriminator(),
		count,
		arena.Len(),
		config.Limit()-arena.Len(),
		arena.Fingerprint(),
	)

	if verbose {
		fmt.Printf("\n\n=========== account layout ===========\n")
		fmt.Print(hex.Dump(arena.Bytes()))
	}
}
