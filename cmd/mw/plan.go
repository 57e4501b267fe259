package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mwdump/internal/config"
	"mwdump/internal/convert"
	"mwdump/internal/datasource"
	"mwdump/internal/datasource/file"
)

// singleJob converts src to the file dst, creating dst's directory first.
func singleJob(src, dst string) ([]convert.Job, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return convert.Jobs([]string{src}, []string{dst})
}

// planJobs turns the source and output settings into jobs. A single file or
// URL converts to dst itself, whose parent directory is created; a directory or list converts into dst as a
// directory, which is created if needed.
func planJobs(src config.Source, dst string) ([]convert.Job, error) {
	var sources []string
	switch {
	case src.List != "":
		list, err := file.ReadList(src.List)
		if err != nil {
			return nil, err
		}
		sources = list

	case datasource.IsRemote(src.Path):
		return singleJob(src.Path, dst)

	default:
		info, err := os.Stat(src.Path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("source %s does not exist", src.Path)
		}
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return singleJob(src.Path, dst)
		}
		if sources, err = file.Gather(src.Path); err != nil {
			return nil, err
		}
	}

	if len(sources) == 0 {
		return nil, convert.ErrNoSources
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return convert.Jobs(sources, convert.MakeTargets(sources, dst))
}
