package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ratetables/internal/artifact"
	"ratetables/internal/config"
	"ratetables/internal/load"
	"ratetables/internal/ratetable"
	"ratetables/internal/storage"
	"ratetables/internal/tableload"
	"ratetables/internal/transform"

	// register every backend; the config picks one.
	_ "ratetables/internal/storage/all"
)

func newTransformCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Read the source tables and write the JSON artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				_, err := a.transform(ctx)
				return err
			})
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load the JSON artifacts into the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				set, _, err := a.store().Read(ctx)
				if err != nil {
					return err
				}
				return a.load(ctx, set)
			})
		},
	}
}

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Transform, write the artifacts, then load them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				set, err := a.transform(ctx)
				if err != nil {
					return err
				}
				return a.load(ctx, set)
			})
		},
	}
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the build config and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := config.ValidateBuild(a.cfg)
			for _, iss := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			}
			if config.HasErrors(issues) {
				return fmt.Errorf("%w: %s", errInvalidConfig, a.cfgPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config ok: %s\n", a.cfgPath)
			return nil
		},
	}
}

func (a *app) store() *artifact.Store {
	return artifact.NewStore(a.cfg.Artifacts.Dir, a.cfg.Job, a.cfg.Runtime.WorkerCount(), a.logger)
}

// transform runs the transform stage and writes its artifacts.
func (a *app) transform(ctx context.Context) (ratetable.Set, error) {
	t := transform.New(transform.Options{
		Job:      a.cfg.Job,
		Products: a.cfg.Products,
		Parser: tableload.Options{
			Kind:   a.cfg.Sources.Parser.Kind,
			Parser: a.cfg.Sources.Parser.Options,
		},
	}, a.logger)
	src, err := transform.OpenSources(a.cfg.Sources, a.logger)
	if err != nil {
		return ratetable.Set{}, err
	}
	res, err := t.Run(ctx, src)
	if err != nil {
		return ratetable.Set{}, err
	}
	if _, err := a.store().Write(ctx, res.Set); err != nil {
		return ratetable.Set{}, err
	}
	return res.Set, nil
}

// load opens the configured store and loads set into it.
func (a *app) load(ctx context.Context, set ratetable.Set) error {
	repo, err := storage.New(ctx, storage.Config{Kind: a.cfg.Storage.Kind, DSN: a.cfg.Storage.DB.DSN})
	if err != nil {
		return err
	}
	defer repo.Close()

	_, err = load.New(load.Options{
		Job:       a.cfg.Job,
		Replace:   a.cfg.Storage.DB.Replace,
		BatchSize: a.cfg.Runtime.BatchRows(),
	}, a.logger).Run(ctx, repo, set)
	return err
}
