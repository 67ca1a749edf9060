// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command yamlcfg layers a command line over a YAML file: the file supplies
// base values, and any flag overrides its field. Point TRAIN_CONFIG at a
// YAML file such as:
//
//	batch_size: 2048
//	log_dir: /tmp/runs
//	optimizer:
//	  lr: 0.01
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/typeflag/typeflag/pkg/cli"
	"github.com/typeflag/typeflag/pkg/confload"
	"github.com/typeflag/typeflag/pkg/schema"
)

type Optimizer struct {
	Lr       float64 `default:"0.1" help:"step size"`
	Momentum float64 `default:"0.9" help:"momentum coefficient"`
}

type TrainConfig struct {
	BatchSize int             `default:"1024" help:"examples per step"`
	LogDir    schema.FilePath `default:"runs" help:"where to write logs"`
	Optimizer Optimizer
}

func main() {
	opts := []cli.Option{cli.WithProgName("yamlcfg")}
	if name := os.Getenv("TRAIN_CONFIG"); name != "" {
		doc, err := confload.YAMLFile(name)
		if err != nil {
			log.Fatal(err)
		}
		opts = append(opts, cli.WithDefaultDoc(doc))
	}

	cfg := cli.Main[TrainConfig](opts...)
	fmt.Printf("%+v\n", cfg)
}
