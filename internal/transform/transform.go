// Package transform turns the five source tables into the typed rows of a
// rate-table build.
//
// Descriptions are read first and restricted to the published products; every
// other table is then restricted to the tables those descriptions reference,
// so each row that reaches the store has a parent. Bands are converted into
// face-amount ranges and modal profiles into policy charges. Duplicate primary
// keys inside a table are rejected here, with both source lines, before
// anything is written.
package transform

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ratetables/internal/bands"
	"ratetables/internal/charges"
	"ratetables/internal/config"
	"ratetables/internal/datasource"
	"ratetables/internal/datasource/file"
	"ratetables/internal/datasource/httpds"
	"ratetables/internal/metrics"
	"ratetables/internal/ratetable"
	"ratetables/internal/tableload"
)

// Sources holds one data source per source table.
type Sources struct {
	RateDescription datasource.Source
	PremiumRate     datasource.Source
	Band            datasource.Source
	ModalProfile    datasource.Source
	CashValue       datasource.Source
}

// LocalSources binds the configured file names to local files.
func LocalSources(cfg config.Sources) Sources {
	return Sources{
		RateDescription: file.NewLocal(cfg.Path(cfg.Files.RateDescription)),
		PremiumRate:     file.NewLocal(cfg.Path(cfg.Files.PremiumRate)),
		Band:            file.NewLocal(cfg.Path(cfg.Files.Band)),
		ModalProfile:    file.NewLocal(cfg.Path(cfg.Files.ModalProfile)),
		CashValue:       file.NewLocal(cfg.Path(cfg.Files.CashValue)),
	}
}

// RemoteSources binds the configured file names to URLs under cfg.Dir.
func RemoteSources(cfg config.Sources, client *httpds.Client) (Sources, error) {
	var src Sources
	for _, f := range []struct {
		name string
		dst  *datasource.Source
	}{
		{cfg.Files.RateDescription, &src.RateDescription},
		{cfg.Files.PremiumRate, &src.PremiumRate},
		{cfg.Files.Band, &src.Band},
		{cfg.Files.ModalProfile, &src.ModalProfile},
		{cfg.Files.CashValue, &src.CashValue},
	} {
		u, err := cfg.URL(f.name)
		if err != nil {
			return Sources{}, fmt.Errorf("source %s: %w", f.name, err)
		}
		*f.dst = httpds.NewRemote(client, u)
	}
	return src, nil
}

// OpenSources picks local or remote sources from cfg.
func OpenSources(cfg config.Sources, logger *zap.Logger) (Sources, error) {
	if !cfg.Remote() {
		return LocalSources(cfg), nil
	}
	return RemoteSources(cfg, httpds.NewClient(httpds.Config{
		Timeout:            time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		MaxRetries:         cfg.HTTP.Retries,
		InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		Logger:             logger,
	}))
}

// Options configures a transform run.
type Options struct {
	Job      string
	Products []config.Product
	Parser   tableload.Options
}

// Result is the output of a transform run.
type Result struct {
	ratetable.Set

	// Files maps each SQL table to the source file it was built from.
	Files map[string]string
}

// Transformer runs the transform stage.
type Transformer struct {
	opt    Options
	logger *zap.Logger
}

// New returns a Transformer. A nil logger is replaced by a no-op logger.
func New(opt Options, logger *zap.Logger) *Transformer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{opt: opt, logger: logger.Named("transform")}
}

// Run reads every source and builds the typed tables.
func (t *Transformer) Run(ctx context.Context, src Sources) (*Result, error) {
	start := time.Now()
	res, err := t.run(ctx, src)
	metrics.RecordStep(t.opt.Job, "transform", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	for table, n := range res.Counts() {
		metrics.RecordRows(t.opt.Job, table, "kept", int64(n))
	}
	t.logger.Info("transform complete",
		zap.Int(ratetable.TableRateDescription, len(res.Descriptions)),
		zap.Int(ratetable.TablePremiumBand, len(res.Bands)),
		zap.Int(ratetable.TablePremiumRate, len(res.PremiumRates)),
		zap.Int(ratetable.TablePolicyCharge, len(res.Charges)),
		zap.Int(ratetable.TableCashValue, len(res.CashValues)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (t *Transformer) run(ctx context.Context, src Sources) (*Result, error) {
	res := &Result{Files: make(map[string]string, 5)}

	minimums := make(map[string]int64, len(t.opt.Products))
	codes := make([]string, 0, len(t.opt.Products))
	for _, p := range t.opt.Products {
		code := strings.ToLower(strings.TrimSpace(p.PlanCode))
		minimums[code] = p.MinimumFaceAmount
		codes = append(codes, code)
	}

	descTbl, err := t.load(ctx, ratetable.TableRateDescription, src.RateDescription, descriptionSpec(anySet(codes)))
	if err != nil {
		return nil, err
	}
	res.Files[ratetable.TableRateDescription] = descTbl.File
	res.Descriptions = make([]ratetable.RateDescription, 0, len(descTbl.Records))
	keys := make([]ratetable.Keyed, 0, len(descTbl.Records))
	for _, r := range descTbl.Records {
		d := ratetable.RateDescription{
			PlanCode:          r.Code("plan_code"),
			PremiumTable:      r.Code("premium_table"),
			BandTable:         r.Code("band_table"),
			CashValueTable:    r.OptionalCode("cash_value_table"),
			ChargesTable:      r.Code("charges_table"),
			UnisexRates:       r.Bool("unisex_rates"),
			UnisexCashValues:  r.OptionalBool("unisex_cash_values"),
			MinimumFaceAmount: minimums[r.Code("plan_code")],
		}
		res.Descriptions = append(res.Descriptions, d)
		keys = append(keys, ratetable.Keyed{Key: d.Key(), Line: r.Line})
	}
	if err := ratetable.CheckDuplicates(ratetable.TableRateDescription, descTbl.File, keys); err != nil {
		return nil, err
	}
	t.warnMissingProducts(codes, res.Descriptions)

	premiumTables := map[string]struct{}{}
	bandTables := map[string]struct{}{}
	chargesTables := map[string]struct{}{}
	cashTables := map[string]struct{}{}
	for _, d := range res.Descriptions {
		premiumTables[d.PremiumTable] = struct{}{}
		bandTables[d.BandTable] = struct{}{}
		chargesTables[d.ChargesTable] = struct{}{}
		if d.CashValueTable.Valid {
			cashTables[d.CashValueTable.Value] = struct{}{}
		}
	}

	if res.PremiumRates, err = t.readPremiumRates(ctx, src.PremiumRate, premiumTables, res.Files); err != nil {
		return nil, err
	}
	if res.Bands, err = t.readBands(ctx, src.Band, bandTables, res.Files); err != nil {
		return nil, err
	}
	if res.Charges, err = t.readCharges(ctx, src.ModalProfile, chargesTables, res.Files); err != nil {
		return nil, err
	}
	if res.CashValues, err = t.readCashValues(ctx, src.CashValue, cashTables, res.Files); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *Transformer) readPremiumRates(ctx context.Context, src datasource.Source, tables map[string]struct{}, files map[string]string) ([]ratetable.PremiumRate, error) {
	tbl, err := t.load(ctx, ratetable.TablePremiumRate, src, premiumRateSpec(anySet(keysOf(tables))))
	if err != nil {
		return nil, err
	}
	files[ratetable.TablePremiumRate] = tbl.File

	out := make([]ratetable.PremiumRate, 0, len(tbl.Records))
	keys := make([]ratetable.Keyed, 0, len(tbl.Records))
	for _, r := range tbl.Records {
		p := ratetable.PremiumRate{
			PremiumTable:     r.Code("premium_table"),
			PremiumBand:      r.Int("premium_band"),
			IssueAge:         r.Int("issue_age"),
			MalePolicyGender: r.Bool("male_policy_gender"),
			RiskClass:        r.Code("risk_class"),
			PremiumPer1000:   r.Float("premium_per_1000"),
		}
		out = append(out, p)
		keys = append(keys, ratetable.Keyed{Key: p.Key(), Line: r.Line})
	}
	return out, ratetable.CheckDuplicates(ratetable.TablePremiumRate, tbl.File, keys)
}

func (t *Transformer) readBands(ctx context.Context, src datasource.Source, tables map[string]struct{}, files map[string]string) ([]ratetable.PremiumBand, error) {
	tbl, err := t.load(ctx, ratetable.TablePremiumBand, src, bandSpec(anySet(keysOf(tables))))
	if err != nil {
		return nil, err
	}
	files[ratetable.TablePremiumBand] = tbl.File

	rows := make([]bands.Row, 0, len(tbl.Records))
	keys := make([]ratetable.Keyed, 0, len(tbl.Records))
	for _, r := range tbl.Records {
		row := bands.Row{
			BandTable: r.Code("band_table"),
			Limit: bands.Limit{
				Band:         r.Int("premium_band"),
				MaxFaceUnits: r.Float("max_face_units"),
				Line:         r.Line,
			},
		}
		rows = append(rows, row)
		keys = append(keys, ratetable.Keyed{Key: []any{row.BandTable, row.Band}, Line: r.Line})
	}
	if err := ratetable.CheckDuplicates(ratetable.TablePremiumBand, tbl.File, keys); err != nil {
		return nil, err
	}

	out, err := bands.DeriveAll(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tbl.File, err)
	}
	for _, b := range cappedBandTables(out) {
		t.logger.Warn("band table has no open-ended band",
			zap.String("band_table", b.BandTable),
			zap.Int64("upper_face_amount", b.UpperFaceAmount))
	}
	return out, nil
}

// cappedBandTables returns the last band of every band table whose upper
// bound is finite. Bands arrive grouped by table in ascending band order.
func cappedBandTables(in []ratetable.PremiumBand) []ratetable.PremiumBand {
	var out []ratetable.PremiumBand
	for i, b := range in {
		last := i == len(in)-1 || in[i+1].BandTable != b.BandTable
		if last && !bands.IsUnbounded(b.UpperFaceAmount) {
			out = append(out, b)
		}
	}
	return out
}

func (t *Transformer) readCharges(ctx context.Context, src datasource.Source, tables map[string]struct{}, files map[string]string) ([]ratetable.PolicyCharge, error) {
	tbl, err := t.load(ctx, ratetable.TablePolicyCharge, src, modalProfileSpec(anySet(keysOf(tables))))
	if err != nil {
		return nil, err
	}
	files[ratetable.TablePolicyCharge] = tbl.File

	in := make([]charges.Input, 0, len(tbl.Records))
	for _, r := range tbl.Records {
		in = append(in, charges.Input{
			ChargesTable:     r.Code("charges_table"),
			BillingFrequency: r.Frequency("billing_frequency"),
			PaidByInvoice:    r.Bool("paid_by_invoice"),
			PremiumFactor:    r.Float("premium_factor"),
			ModalPolicyFee:   r.Float("modal_policy_fee"),
			CollectionFee:    r.Float("collection_fee"),
			Line:             r.Line,
		})
	}
	out := charges.AggregateAll(in)

	keys := make([]ratetable.Keyed, len(out))
	for i := range out {
		keys[i] = ratetable.Keyed{Key: out[i].Key(), Line: in[i].Line}
	}
	return out, ratetable.CheckDuplicates(ratetable.TablePolicyCharge, tbl.File, keys)
}

func (t *Transformer) readCashValues(ctx context.Context, src datasource.Source, tables map[string]struct{}, files map[string]string) ([]ratetable.CashValue, error) {
	tbl, err := t.load(ctx, ratetable.TableCashValue, src, cashValueSpec(anySet(keysOf(tables))))
	if err != nil {
		return nil, err
	}
	files[ratetable.TableCashValue] = tbl.File

	out := make([]ratetable.CashValue, 0, len(tbl.Records))
	keys := make([]ratetable.Keyed, 0, len(tbl.Records))
	for _, r := range tbl.Records {
		v := ratetable.CashValue{
			CashValueTable:   r.Code("cash_value_table"),
			IssueAge:         r.Int("issue_age"),
			PolicyYear:       r.Int("policy_year"),
			MalePolicyGender: r.Bool("male_policy_gender"),
			RiskClass:        r.Code("risk_class"),
			CashValuePer1000: r.Float("cash_value_per_1000"),
		}
		out = append(out, v)
		keys = append(keys, ratetable.Keyed{Key: v.Key(), Line: r.Line})
	}
	return out, ratetable.CheckDuplicates(ratetable.TableCashValue, tbl.File, keys)
}

// load reads one source table and records read/step metrics for it.
func (t *Transformer) load(ctx context.Context, table string, src datasource.Source, spec tableload.Spec) (*tableload.Table, error) {
	if src == nil {
		return nil, fmt.Errorf("no source configured for %s", table)
	}
	start := time.Now()
	tbl, err := tableload.Load(ctx, src, spec, t.opt.Parser)
	metrics.RecordStep(t.opt.Job, "read:"+table, err, time.Since(start))
	if err != nil {
		t.logger.Error("read failed", zap.String("table", table), zap.String("file", src.Name()), zap.Error(err))
		return nil, err
	}
	metrics.RecordRows(t.opt.Job, table, "read", int64(tbl.Read))
	t.logger.Debug("read source",
		zap.String("table", table),
		zap.String("file", tbl.File),
		zap.Int("read", tbl.Read),
		zap.Int("kept", len(tbl.Records)),
	)
	return tbl, nil
}

func (t *Transformer) warnMissingProducts(codes []string, found []ratetable.RateDescription) {
	have := make(map[string]bool, len(found))
	for _, d := range found {
		have[d.PlanCode] = true
	}
	for _, c := range codes {
		if !have[c] {
			t.logger.Warn("product has no rate description", zap.String("plan_code", c))
		}
	}
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func anySet(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
