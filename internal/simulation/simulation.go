// Package simulation runs the configured scenarios through the amortization
// engine.
package simulation

import (
	"fmt"

	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/pkg/amortization"
	"github.com/iwvelando/loan-simulator/pkg/optimization"
	"go.uber.org/zap"
)

// Result holds all information related to a simulated scenario.
type Result struct {
	Name         string                        `json:"name"`
	Principal    float64                       `json:"principal"`
	DownPayment  float64                       `json:"downPayment,omitempty"`
	Parameters   amortization.LoanParameters   `json:"parameters"`
	Simulation   amortization.SimulationResult `json:"simulation"`
	Optimization *optimization.Summary         `json:"optimization,omitempty"`
}

// RunScenarios simulates every active scenario in file order.
func RunScenarios(logger *zap.Logger, conf config.Configuration) ([]Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	simulator := amortization.NewSimulator(logger)
	var results []Result
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "simulation.RunScenarios"),
			)
			continue
		}

		result, err := RunScenario(simulator, scenario, conf.Defaults)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}

	return results, nil
}

// RunScenario simulates a single scenario, active or not.
func RunScenario(simulator *amortization.Simulator, scenario config.Scenario, defaults config.Defaults) (Result, error) {
	params, extra, err := scenario.Parameters(defaults)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	simulated, err := simulator.Run(params, extra)
	if err != nil {
		return Result{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	return Result{
		Name:        scenario.Name,
		Principal:   scenario.Principal,
		DownPayment: scenario.DownPayment,
		Parameters:  params,
		Simulation:  simulated,
	}, nil
}
