// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command experiment shows presets and union-typed fields: "small" and
// "big" are selectable base configurations, the optimizer is a union the
// command line dispatches with a bare "adam" or "sgd" token, and the seed
// has no default so every run must supply --seed.
package main

import (
	"fmt"
	"log"

	"github.com/typeflag/typeflag/pkg/cli"
	"github.com/typeflag/typeflag/pkg/presets"
	"github.com/typeflag/typeflag/pkg/schema"
)

// OptimizerConfig is implemented by every optimizer choice.
type OptimizerConfig interface {
	optimizer()
}

type AdamOptimizer struct {
	LearningRate float64    `flag:"lr" help:"step size"`
	Betas        [2]float64 `help:"exponential decay rates"`
}

func (AdamOptimizer) optimizer() {}

type SgdOptimizer struct {
	LearningRate float64 `flag:"lr" help:"step size"`
	Momentum     float64 `help:"momentum coefficient"`
}

func (SgdOptimizer) optimizer() {}

// ExperimentConfig is one training run.
type ExperimentConfig struct {
	Dataset    string `enum:"mnist,imagenet-50" help:"dataset to train on"`
	Optimizer  OptimizerConfig
	BatchSize  int   `help:"examples per step"`
	NumLayers  int   `help:"model depth"`
	Units      int   `help:"hidden layer width"`
	TrainSteps int   `help:"optimizer steps to run"`
	Seed       int64 `help:"rng seed"`
}

func main() {
	optimizers, err := schema.UnionOf(
		mustVariant("adam", AdamOptimizer{LearningRate: 3e-4, Betas: [2]float64{0.9, 0.999}}, "adaptive moment estimation"),
		mustVariant("sgd", SgdOptimizer{LearningRate: 3e-4, Momentum: 0.9}, "stochastic gradient descent"),
	)
	if err != nil {
		log.Fatal(err)
	}

	reg := presets.New[ExperimentConfig](
		presets.WithUnions[ExperimentConfig](schema.Unions{"Optimizer": optimizers}),
	)
	if err := reg.Add("small", ExperimentConfig{
		Dataset:    "mnist",
		Optimizer:  AdamOptimizer{LearningRate: 3e-4, Betas: [2]float64{0.9, 0.999}},
		BatchSize:  2048,
		NumLayers:  4,
		Units:      64,
		TrainSteps: 30_000,
	}, "train a small model", presets.Missing("Seed")); err != nil {
		log.Fatal(err)
	}
	if err := reg.Add("big", ExperimentConfig{
		Dataset:    "imagenet-50",
		Optimizer:  AdamOptimizer{LearningRate: 3e-4, Betas: [2]float64{0.9, 0.999}},
		BatchSize:  4096,
		NumLayers:  8,
		Units:      256,
		TrainSteps: 100_000,
	}, "train a big model", presets.Missing("Seed")); err != nil {
		log.Fatal(err)
	}

	node, err := reg.Node()
	if err != nil {
		log.Fatal(err)
	}

	cfg := cli.Main[ExperimentConfig](
		cli.WithProgName("experiment"),
		cli.WithNode(node),
	)
	fmt.Printf("%+v\n", cfg)
}

func mustVariant(name string, prototype any, description string) schema.UnionVariant {
	v, err := schema.VariantOf(name, prototype, description)
	if err != nil {
		log.Fatal(err)
	}
	return v
}
