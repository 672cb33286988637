package utils

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
)

// Crop is one row of the static water-footprint dataset. The dataset keys
// follow the upstream CSV headers.
type Crop map[string]interface{}

const cropTotalWFKey = "Total WF (m³/ton)"

var (
	cropData     []Crop
	cropDataOnce sync.Once
	cropDataErr  error
)

// LoadCropData reads the dataset from path once; later calls are no-ops.
func LoadCropData(path string) error {
	cropDataOnce.Do(func() {
		raw, err := os.ReadFile(path)
		if err != nil {
			cropDataErr = err
			return
		}
		cropDataErr = json.Unmarshal(raw, &cropData)
	})
	return cropDataErr
}

// FindCrop looks a crop up by name, case-insensitively.
func FindCrop(name string) (Crop, bool) {
	for _, c := range cropData {
		if n, ok := c["Crop Name"].(string); ok && strings.EqualFold(n, name) {
			return c, true
		}
	}
	return nil, false
}

// TotalWaterFootprint extracts the total water footprint (m3/ton) of a crop.
func (c Crop) TotalWaterFootprint() float64 {
	if v, ok := c[cropTotalWFKey].(float64); ok {
		return v
	}
	return 0
}
