// Package schema declares the five rate tables.
package schema

import (
	"ratetables/internal/ddl"
	"ratetables/internal/ratetable"
)

// Owner is the rate_description column reported alongside a description that
// names a table with no rows.
const Owner = "plan_code"

func textCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Type: ddl.TypeText} }

func intCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Type: ddl.TypeInt} }

func floatCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Type: ddl.TypeFloat} }

func boolCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Type: ddl.TypeBool} }

func refersTo(col string) ddl.ForeignKey {
	return ddl.ForeignKey{
		Columns:    []string{col},
		RefTable:   ratetable.TableRateDescription,
		RefColumns: []string{col},
	}
}

// Tables returns the table definitions in dependency order: the parent first,
// then its children. Column order matches the Columns() of the matching
// ratetable entity.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{
		{
			Name: ratetable.TableRateDescription,
			Columns: []ddl.ColumnDef{
				textCol("plan_code"),
				textCol("premium_table"),
				textCol("band_table"),
				{Name: "cash_value_table", Type: ddl.TypeText, Nullable: true},
				textCol("charges_table"),
				boolCol("unisex_rates"),
				{Name: "unisex_cash_values", Type: ddl.TypeBool, Nullable: true},
				intCol("minimum_face_amount"),
			},
			PrimaryKey: []string{"plan_code"},
			Indexes:    []ddl.Index{{Name: "idx_pc", Columns: []string{"plan_code"}, Unique: true}},
		},
		{
			Name: ratetable.TablePremiumBand,
			Columns: []ddl.ColumnDef{
				textCol("band_table"),
				intCol("premium_band"),
				intCol("lower_face_amount"),
				intCol("upper_face_amount"),
			},
			PrimaryKey:  []string{"band_table", "premium_band"},
			ForeignKeys: []ddl.ForeignKey{refersTo("band_table")},
			Indexes:     []ddl.Index{{Name: "idx_pt", Columns: []string{"band_table"}}},
		},
		{
			Name: ratetable.TablePremiumRate,
			Columns: []ddl.ColumnDef{
				textCol("premium_table"),
				intCol("premium_band"),
				intCol("issue_age"),
				boolCol("male_policy_gender"),
				textCol("risk_class"),
				floatCol("premium_per_1000"),
			},
			PrimaryKey:  []string{"premium_table", "premium_band", "issue_age", "male_policy_gender", "risk_class"},
			ForeignKeys: []ddl.ForeignKey{refersTo("premium_table")},
			Indexes: []ddl.Index{
				{Name: "idx_nb", Columns: []string{"premium_table", "issue_age", "male_policy_gender", "risk_class"}},
				{Name: "idx_b", Columns: []string{"premium_table", "premium_band", "issue_age", "male_policy_gender", "risk_class"}},
			},
		},
		{
			Name: ratetable.TablePolicyCharge,
			Columns: []ddl.ColumnDef{
				textCol("charges_table"),
				intCol("billing_frequency"),
				boolCol("paid_by_invoice"),
				floatCol("policy_charges"),
			},
			PrimaryKey:  []string{"charges_table", "billing_frequency", "paid_by_invoice"},
			ForeignKeys: []ddl.ForeignKey{refersTo("charges_table")},
			Indexes:     []ddl.Index{{Name: "idx_c", Columns: []string{"charges_table", "billing_frequency", "paid_by_invoice"}}},
		},
		{
			Name: ratetable.TableCashValue,
			Columns: []ddl.ColumnDef{
				textCol("cash_value_table"),
				intCol("issue_age"),
				intCol("policy_year"),
				boolCol("male_policy_gender"),
				textCol("risk_class"),
				floatCol("cash_value_per_1000"),
			},
			PrimaryKey:  []string{"cash_value_table", "issue_age", "policy_year", "male_policy_gender", "risk_class"},
			ForeignKeys: []ddl.ForeignKey{refersTo("cash_value_table")},
			Indexes:     []ddl.Index{{Name: "idx_wl", Columns: []string{"cash_value_table", "issue_age", "male_policy_gender", "risk_class"}}},
		},
	}
}
