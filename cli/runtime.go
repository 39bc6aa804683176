package cli

import (
	"fmt"
	"os"

	"imageoptimize/assets"
	"imageoptimize/config"
	"imageoptimize/encoder"
	"imageoptimize/failures"
	"imageoptimize/field"
	"imageoptimize/generator"
	"imageoptimize/logger"
	"imageoptimize/success"
	taskqueue "imageoptimize/taskQueue"
	"imageoptimize/transforms"
	"imageoptimize/volumes"
)

// runtime is everything a command needs, opened from the configuration
type runtime struct {
	assets     *assets.Service
	field      *field.Field
	transforms *transforms.Service
	closers    []func() error
}

func (rt *runtime) onClose(fn func() error) {
	rt.closers = append(rt.closers, fn)
}

// Close releases the stores in reverse opening order
func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			logger.Errorf("Failed to close store: %v", err)
		}
	}
}

// openRuntime opens the stores and wires the save pipeline
func openRuntime() (_ *runtime, err error) {
	rt := &runtime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	for _, dir := range []string{config.GetDataDir(), config.GetOriginalsDir(), config.GetDirectServeBaseDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	stores := []struct {
		name  string
		path  string
		open  func(string) error
		close func() error
	}{
		{"assets", config.GetAssetsDBPath(), assets.Init, assets.Close},
		{"volumes", config.GetVolumesDBPath(), volumes.OpenDB, volumes.CloseDB},
		{"fields", config.GetFieldsDBPath(), field.InitSettings, field.CloseSettings},
		{"success", config.GetSuccessDBPath(), success.Init, success.Close},
		{"failures", config.GetFailuresDBPath(), failures.Init, failures.Close},
	}
	for _, s := range stores {
		logger.Debugf("Initializing %s database", s.name)
		if err := s.open(s.path); err != nil {
			return nil, fmt.Errorf("failed to initialize %s store: %w", s.name, err)
		}
		rt.onClose(s.close)
	}

	index, err := taskqueue.OpenQueue(config.GetTransformIndexDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open transform index: %w", err)
	}
	rt.onClose(index.Close)
	queue, err := taskqueue.OpenQueue(config.GetTransformQueueDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open transform queue: %w", err)
	}
	rt.onClose(queue.Close)

	if _, err := volumes.EnsureDefault(); err != nil {
		return nil, err
	}

	encoder.RegisterDefaults()
	logger.Infof("Encoders available for: %v", encoder.Default.Formats())

	rt.transforms = transforms.New(encoder.Default, index, queue, config.GetOriginalsDir())
	rt.transforms.SetGenerateBeforePageLoad(config.GetEagerTransforms())

	policy, err := field.ParseFailurePolicy(config.GetFailurePolicy())
	if err != nil {
		return nil, err
	}

	rt.assets = assets.NewService()
	gen := generator.New(rt.transforms.Codec(), generator.WithEagerToggle(rt.transforms.Toggle()))
	rt.field = field.New(config.GetFieldHandle(), gen, rt.transforms, rt.assets, field.WithFailurePolicy(policy))
	rt.assets.AddHook(rt.field)

	if err := rt.loadVariants(); err != nil {
		return nil, err
	}
	return rt, nil
}

// loadVariants applies the variants file when one is configured, otherwise
// the settings stored for the field handle, otherwise the defaults
func (rt *runtime) loadVariants() error {
	if path := config.GetVariantsFile(); path != "" {
		specs, err := config.LoadVariantsFile(path)
		if err != nil {
			return err
		}
		if err := rt.field.SetVariants(specs); err != nil {
			return err
		}
		logger.Infof("Loaded %d variants from %s", len(specs), path)
		return nil
	}

	found, err := rt.field.LoadSettings()
	if err != nil {
		return err
	}
	if !found {
		logger.Infof("Field %s has no stored settings, using the default variants", rt.field.Handle)
	}
	return nil
}
