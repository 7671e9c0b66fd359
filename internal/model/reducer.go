package model

// Reducer names recorded in the reducer call log.
const (
	ReducerAddDataPoint       = "add_data_point"
	ReducerAddCategory        = "add_category"
	ReducerUpdateDataPoint    = "update_data_point"
	ReducerDeleteDataPoint    = "delete_data_point"
	ReducerDeleteCategory     = "delete_category"
	ReducerGenerateSampleData = "generate_sample_data"
)

// ReducerCall is one entry of the append-only reducer call log.
//
// Seq is a logical clock value assigned by the engine. CalledAt is the wall
// time reported by the engine's source and is informational only: ordering
// always uses Seq.
type ReducerCall struct {
	Seq      int64          `json:"seq"`
	Reducer  string         `json:"reducer"`
	Args     map[string]any `json:"args"`
	Result   any            `json:"result"`
	CalledAt int64          `json:"called_at"`
}
