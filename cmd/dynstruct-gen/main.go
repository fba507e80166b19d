// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-struct library.

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pk910/dynamic-struct/schema"
)

func main() {
	var (
		schemaFile  = flag.String("schema", "", "YAML or TOML schema file to generate types for")
		packageName = flag.String("package", "", "Package name of the generated file")
		outputFile  = flag.String("output", "", "Output file path for generated code")
		verbose     = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if *schemaFile == "" {
		log.Fatal("Schema file is required (-schema)")
	}
	if *packageName == "" {
		log.Fatal("Package name is required (-package)")
	}
	if *outputFile == "" {
		log.Fatal("Output file is required (-output)")
	}

	if *verbose {
		log.Printf("Loading schema: %s", *schemaFile)
		log.Printf("Package: %s", *packageName)
		log.Printf("Output file: %s", *outputFile)
	}

	s, err := schema.LoadFile(*schemaFile)
	if err != nil {
		log.Fatalf("Failed to load schema %s: %v", *schemaFile, err)
	}

	if *verbose {
		for _, name := range s.Names() {
			def, _ := s.Struct(name)
			log.Printf("Found struct: %s (%d retrievers)", name, len(def.Retrievers()))
		}
		log.Printf("Generating code...")
	}

	generatedCode, err := generateFile(s, *packageName, *schemaFile, *outputFile)
	if err != nil {
		log.Fatalf("Failed to generate code: %v", err)
	}

	if *verbose {
		log.Printf("Writing output to %s", *outputFile)
	}

	err = os.WriteFile(*outputFile, generatedCode, 0644)
	if err != nil {
		log.Fatalf("Failed to write output file %s: %v", *outputFile, err)
	}

	if *verbose {
		log.Printf("Successfully generated %d bytes of code for %d structs", len(generatedCode), len(s.Names()))
	} else {
		fmt.Printf("Generated struct code for %d types in %s\n", len(s.Names()), *outputFile)
	}
}
