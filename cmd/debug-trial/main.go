// debug-trial plays one promo ticket spin by spin and prints the balance
// walk, for eyeballing the simulation against the dashboard numbers.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/rankop88888/promo-sim-go/internal/engine"
	"github.com/rankop88888/promo-sim-go/internal/paytable"
	"github.com/rankop88888/promo-sim-go/internal/sim"
)

func main() {
	faceValue := flag.Float64("face", 5000, "promo ticket face value")
	betSize := flag.Float64("bet", 500, "bet per spin")
	multiplier := flag.Float64("mult", 40, "wagering multiplier")
	targetRTP := flag.Float64("rtp", 0.96, "target RTP")
	seed := flag.Uint64("seed", 42, "batch seed")
	trial := flag.Uint64("trial", 0, "trial index within the batch")
	flag.Parse()

	table, err := paytable.Default(*targetRTP)
	if err != nil {
		log.Fatalf("paytable: %v", err)
	}

	params := sim.TrialParams{
		FaceValue:          *faceValue,
		BetSize:            *betSize,
		WageringMultiplier: *multiplier,
	}

	fmt.Printf("ticket: face=%.2f bet=%.2f mult=%.0fx required_wager=%.2f\n",
		params.FaceValue, params.BetSize, params.WageringMultiplier, params.RequiredWager())
	fmt.Printf("table: rtp=%.4f hit_rate=%.4f stddev=%.4f scale=%.6f\n",
		table.RTP(), table.HitRate(), table.StdDev(), table.Scale())

	src := engine.NewStream(*seed, *trial)
	result, trajectory, err := sim.RunTrialTrajectory(params, table, src)
	if err != nil {
		log.Fatalf("trial: %v", err)
	}

	for i, balance := range trajectory {
		fmt.Printf("spin %4d  balance %12.2f\n", i+1, balance)
	}

	if result.Survived {
		fmt.Printf("SURVIVED after %d spins, redeemable %.2f\n", result.Spins, result.FinalBalance)
	} else {
		fmt.Printf("BUSTED after %d spins\n", result.Spins)
	}
}
