package engine

import (
	"context"
	"fmt"

	"github.com/ivanyeors/ai-analytics-platform/internal/model"
)

// SampleCategory is a category seeded by GenerateSampleData.
type SampleCategory struct {
	Name  string
	Color string
}

// SampleCategories are seeded in this order; the random category draw
// indexes into this slice.
var SampleCategories = []SampleCategory{
	{Name: "Revenue", Color: "#1f77b4"},
	{Name: "Users", Color: "#ff7f0e"},
	{Name: "Engagement", Color: "#2ca02c"},
	{Name: "Conversion", Color: "#d62728"},
}

// sampleDescription returns the description given to a seeded sample category.
func sampleDescription(name string) string {
	return fmt.Sprintf("Sample data for %s", name)
}

// GenerateSampleData seeds the sample categories and adds numPoints random
// data points across them.
//
// Seeding only creates missing categories; an existing category with a sample
// name keeps its description and color. Each point draws, in order, a
// category index (random % 4), a value (random % 10000 / 100, so
// 0.00..99.99), and an id. The whole call is one atomic reducer.
func (e *Engine) GenerateSampleData(ctx context.Context, numPoints uint32) error {
	args := map[string]any{"num_points": numPoints}
	_, err := e.apply(ctx, model.ReducerGenerateSampleData, args, func(c *call) (any, error) {
		for _, sc := range SampleCategories {
			_, ok, err := c.tables.Categories().Get(sc.Name)
			if err != nil {
				return nil, err
			}
			if ok {
				continue
			}
			if err := c.tables.Categories().Upsert(sc.Name, sampleDescription(sc.Name), sc.Color); err != nil {
				return nil, err
			}
		}

		n := uint64(len(SampleCategories))
		for i := uint32(0); i < numPoints; i++ {
			category := SampleCategories[e.source.RandomU64()%n].Name
			value := float64(e.source.RandomU64()%10000) / 100.0
			if _, err := c.insertPoint(e.source, category, value); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}
