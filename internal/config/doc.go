// Package config loads TART settings.
//
// Settings are read from several sources, higher ones overriding lower:
//
//	┌─────────────────────────────┐
//	│  5. Environment Variables   │  ← TART_*, highest priority
//	├─────────────────────────────┤
//	│  4. Explicit File           │  ← --config
//	├─────────────────────────────┤
//	│  3. Project File            │  ← ./tart.toml
//	├─────────────────────────────┤
//	│  2. User File               │  ← ~/.config/tart/tart.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// Every source is loaded into a map by the loader sub-package, the maps
// are merged in order and the result is decoded into a Config.
//
// # Basic Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Logging.Level)
//
// # Environment Variables
//
// Variables follow the pattern TART_SECTION_SETTING, so that
// TART_HISTORY_MAX_ENTRIES sets history.maxEntries. A few shorthands are
// recognised as well: TART_LOG_LEVEL, TART_CLASSES, TART_STORE,
// TART_MAX_UNDO, TART_SEPARATOR, TART_PRECISION and TART_ANNOTATOR.
package config
