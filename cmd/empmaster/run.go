package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"empmaster/internal/config"
	"empmaster/internal/datasource"
	"empmaster/internal/datasource/file"
	"empmaster/internal/datasource/sftp"
	"empmaster/internal/employee"
	"empmaster/internal/loader"
	"empmaster/internal/metrics"
	csvparser "empmaster/internal/parser/csv"
	"empmaster/internal/rejectlog"
	"empmaster/internal/storage"
	"empmaster/pkg/records"
)

// runOptions carries process-level settings that are not part of the
// pipeline file.
type runOptions struct {
	verbose bool
	now     func() time.Time
}

// runOnce executes one import: fetch, parse, transform, normalize, load.
// Any error before the load step leaves the destination untouched.
func runOnce(ctx context.Context, p config.Pipeline, opt runOptions) (loader.Result, error) {
	runID := uuid.NewString()
	start := time.Now()
	log.Printf("run: id=%s job=%s source=%s storage=%s table=%s", runID, p.Job, p.Source.Kind, p.Storage.Kind, p.Storage.DB.Table)

	res, err := runSteps(ctx, p, opt)
	metrics.RecordStep(p.Job, "run", err, time.Since(start))
	if ferr := metrics.Flush(); ferr != nil {
		log.Printf("metrics: flush error: %v", ferr)
	}
	if err != nil {
		log.Printf("run: id=%s failed after %s: %v", runID, time.Since(start).Truncate(time.Millisecond), err)
		return res, err
	}
	log.Printf("run: id=%s done in %s offset=%d inserted=%d fallbacks=%d skipped=%d",
		runID, time.Since(start).Truncate(time.Millisecond), res.Offset, res.Inserted, len(res.Fallbacks), len(res.Skipped))
	return res, nil
}

func runSteps(ctx context.Context, p config.Pipeline, opt runOptions) (loader.Result, error) {
	job := p.Job
	step := func(name string, fn func() error) error {
		t0 := time.Now()
		err := fn()
		metrics.RecordStep(job, name, err, time.Since(t0))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	var raw []byte
	if err := step("fetch", func() error {
		src, err := buildSource(p.Source)
		if err != nil {
			return err
		}
		raw, err = datasource.ReadAll(ctx, src)
		if err != nil {
			return err
		}
		log.Printf("fetch: bytes=%d xxh3=%s", len(raw), datasource.Fingerprint(raw))
		return nil
	}); err != nil {
		return loader.Result{State: loader.StateFailed}, err
	}

	var raws []records.Record
	if err := step("parse", func() error {
		var headers []string
		var err error
		raws, headers, err = csvparser.NewParser(csvOptions(p.Parser.Options)).ParseBytes(raw)
		if err != nil {
			return err
		}
		log.Printf("parse: rows=%d columns=%d", len(raws), len(headers))
		if opt.verbose {
			log.Printf("parse: headers=%q", headers)
		}
		metrics.RecordRow(job, "parsed", int64(len(raws)))
		return nil
	}); err != nil {
		return loader.Result{State: loader.StateFailed}, err
	}

	var recs []employee.Record
	if err := step("transform", func() error {
		groups, err := businessGroups(p.Transform.BusinessGroupsFile)
		if err != nil {
			return err
		}
		var topts []employee.Option
		if opt.now != nil {
			topts = append(topts, employee.WithClock(opt.now))
		}
		recs = employee.NewTransformer(groups, topts...).TransformAll(raws)
		logNullCounts(recs, opt.verbose)
		metrics.RecordRow(job, "transformed", int64(len(recs)))
		return nil
	}); err != nil {
		return loader.Result{State: loader.StateFailed}, err
	}

	t0 := time.Now()
	rows := employee.NormalizeAll(recs)
	metrics.RecordStep(job, "normalize", nil, time.Since(t0))

	var res loader.Result
	err := step("load", func() error {
		var err error
		res, err = load(ctx, p, rows)
		return err
	})
	return res, err
}

// load opens one storage session and runs the incremental loader over rows.
func load(ctx context.Context, p config.Pipeline, rows [][]any) (loader.Result, error) {
	policy, err := loader.PolicyByName(p.Transform.Fallback)
	if err != nil {
		return loader.Result{State: loader.StateFailed}, err
	}

	sess, err := storage.Open(ctx, storage.Config{
		Kind:            p.Storage.Kind,
		DSN:             p.Storage.DB.DSN,
		Table:           p.Storage.DB.Table,
		Columns:         canonicalColumns(),
		AutoCreateTable: p.Storage.DB.AutoCreateTable,
	})
	if err != nil {
		return loader.Result{State: loader.StateFailed}, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Printf("storage: close: %v", cerr)
		}
	}()

	lopts := []loader.Option{loader.WithPolicy(policy)}
	if p.RejectLog != "" {
		rl, err := rejectlog.Create(p.RejectLog)
		if err != nil {
			return loader.Result{State: loader.StateFailed}, err
		}
		defer func() {
			if cerr := rl.Close(); cerr != nil {
				log.Printf("rejectlog: %v", cerr)
			}
		}()
		lopts = append(lopts, loader.WithRejectHook(func(r loader.Reject) {
			outcome := "skipped"
			if r.Stored {
				outcome = "fallback"
			}
			rl.Add(outcome, r.Offset, rowUserID(r.Row), r.Err)
		}))
	}

	res, err := loader.New(lopts...).Load(ctx, sess, rows)
	metrics.RecordOffset(p.Job, res.Offset)
	metrics.RecordRow(p.Job, "inserted", res.Inserted-int64(len(res.Fallbacks)))
	metrics.RecordRow(p.Job, "fallback", int64(len(res.Fallbacks)))
	metrics.RecordRow(p.Job, "skipped", int64(len(res.Skipped)))
	return res, err
}

// rowUserID returns the first canonical cell, the employee id, as text.
func rowUserID(row []any) string {
	if len(row) == 0 || row[0] == nil {
		return ""
	}
	return fmt.Sprint(row[0])
}

func buildSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "sftp":
		src, err := sftp.New(sftp.Config{
			Host:       s.SFTP.Host,
			Port:       s.SFTP.Port,
			User:       s.SFTP.User,
			Password:   s.SFTP.Password,
			KeyFile:    s.SFTP.KeyFile,
			KnownHosts: s.SFTP.KnownHosts,
			Path:       s.SFTP.Path,
			Timeout:    time.Duration(s.SFTP.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", s.Kind)
	}
}

func csvOptions(o config.Options) csvparser.Options {
	return csvparser.Options{
		Comma:      o.Rune("comma", ','),
		TrimSpace:  o.Bool("trim_space", false),
		InferTypes: o.Bool("infer_types", false),
		LazyQuotes: o.Bool("lazy_quotes", false),
	}
}

func businessGroups(path string) (employee.BusinessGroups, error) {
	if path == "" {
		return employee.DefaultBusinessGroups(), nil
	}
	g, err := employee.LoadBusinessGroupsFile(path)
	if err != nil {
		return employee.BusinessGroups{}, err
	}
	log.Printf("transform: business_groups=%d file=%s", g.Len(), path)
	return g, nil
}

// canonicalColumns describes the destination table in column order.
func canonicalColumns() []storage.Column {
	fields := employee.Fields()
	cols := make([]storage.Column, len(fields))
	for i, f := range fields {
		cols[i] = storage.Column{Name: f.Name(), Type: string(f.Type())}
	}
	return cols
}

// logNullCounts reports missing values per canonical column. Without verbose
// only columns that are entirely null are listed.
func logNullCounts(recs []employee.Record, verbose bool) {
	counts := employee.NullCounts(recs)
	var allNull []string
	for i, f := range employee.Fields() {
		if verbose {
			log.Printf("transform: nulls column=%q count=%d", f.Name(), counts[i])
		}
		if len(recs) > 0 && counts[i] == len(recs) {
			allNull = append(allNull, f.Name())
		}
	}
	log.Printf("transform: records=%d all_null_columns=%q", len(recs), allNull)
}
