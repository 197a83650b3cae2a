package layout

import (
	"encoding/json"
	"os"
)

// Debug 汇总一次渲染的请求、度量与几何信息，便于调试。
type Debug struct {
	Request  Request  `json:"request"`
	Metrics  Metrics  `json:"metrics"`
	Geometry Geometry `json:"geometry"`
	Shadow   Affine   `json:"shadow"`
}

// WriteDebugJSON 将调试信息输出为 JSON。
func WriteDebugJSON(v any, path string) error {
	if v == nil {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
