package planner

import (
	"errors"
	"fmt"

	"github.com/taskgate/taskgate/models"
)

// VerifyPlan checks that a subtask plan forms a valid DAG: sequence indices
// are dense and in order, and every dependency points strictly backwards.
// Plans built by Decompose satisfy this by construction; the check guards
// plans that cross a process boundary (API payloads, stored records).
func VerifyPlan(plan []models.SubtaskPlan) error {
	for i, node := range plan {
		if node.SequenceIndex != i {
			return fmt.Errorf("subtask %d has sequence index %d", i, node.SequenceIndex)
		}
		if node.Title == "" {
			return errors.New("subtask title cannot be empty")
		}
		for _, dep := range node.DependsOn {
			if dep < 0 || dep >= node.SequenceIndex {
				return fmt.Errorf("subtask %d depends on %d; dependencies must point to earlier subtasks", node.SequenceIndex, dep)
			}
		}
	}
	return nil
}

// PlanHours sums the estimates across the plan.
func PlanHours(plan []models.SubtaskPlan) float64 {
	total := 0.0
	for _, node := range plan {
		total += node.EstimatedHours
	}
	return total
}
