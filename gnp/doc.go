// Package gnp provides a Go implementation of Genetic Network Programming
// (GNP), an evolutionary optimizer over directed graphs of typed decision
// nodes. A population of graphs is improved across generations by
// tournament selection with elitism, edge and boundary mutation, crossover,
// and structural grow/shrink operators.
//
// Unlike tree-based genetic programming, a GNP individual is a fixed graph
// of nodes that is traversed repeatedly: Judgment nodes route execution
// along one of several edges based on a feature value, Processing nodes
// emit an action and advance along a single edge. The graph's cyclic
// structure lets a single individual encode a reusable, compact program.
//
// Basic usage:
//
//	cfg, err := gnp.LoadConfig("path/to/config")
//	if err != nil {
//		log.Fatalf("loading config: %v", err)
//	}
//
//	pop, err := gnp.NewPopulation(cfg, 42)
//	if err != nil {
//		log.Fatalf("creating population: %v", err)
//	}
//	if err := pop.SetAllNodeBoundaries(minF, maxF); err != nil {
//		log.Fatalf("setting boundaries: %v", err)
//	}
//
//	for gen := 0; gen < 100; gen++ {
//		best, err := pop.RunGeneration(func(p *gnp.Population) {
//			p.Accuracy(X, y, cfg.Fitness.DMax, cfg.Fitness.Penalty)
//		})
//		if err != nil {
//			log.Fatalf("generation %d: %v", gen, err)
//		}
//		if best.Fitness >= 0.99 {
//			break
//		}
//	}
package gnp
