// Package config loads minefield presets from JSON files.
//
// Each file in the presets directory holds one preset:
//
//	{
//	  "name": "classic",
//	  "description": "10x10 field with 10 mines",
//	  "rows": 10,
//	  "cols": 10,
//	  "mines": 10
//	}
//
// The file name without its extension is the preset id. The default preset is
// classic.json when present, otherwise the first valid file, otherwise the
// built-in 10x10 field.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	preset, err := manager.LoadPreset("expert")
package config
