package transform

import (
	"ratetables/internal/convert"
	"ratetables/internal/tableload"
)

// Source column names, as exported by the rating system.
const (
	colPlanCode          = "PlanCode"
	colPremiumTable      = "PremiumTable"
	colBandTable         = "BandTable"
	colCashValueTable    = "CashValueTable"
	colModalProfileTable = "ModalProfileTable"
	colUnisexRates       = "UnisexRates"
	colUnisexCashValues  = "UnisexCashValues"

	colPremiumBand    = "PremiumBand"
	colIssueAge       = "IssueAge"
	colSex            = "Sex"
	colRiskClass      = "RiskClass"
	colPremiumPer1000 = "PremiumPer1000"

	colBand         = "Band"
	colMaxFaceUnits = "MaxFaceUnits"

	colBillingFrequency = "BillingFrequency"
	colPaymentType      = "PaymentType"
	colPremiumFactor    = "PremiumFactor"
	colModalPolicyFee   = "ModalPolicyFee"
	colCollectionFee    = "CollectionFee"

	colMaxPolicyYear    = "MaxPolicyYear"
	colCashValuePer1000 = "CashValuePer1000"
)

func descriptionSpec(products []any) tableload.Spec {
	return tableload.Spec{
		Name: "rate descriptions",
		Columns: []tableload.Column{
			{Source: colPlanCode, Name: "plan_code", Convert: convert.Code},
			{Source: colPremiumTable, Name: "premium_table", Convert: convert.Code},
			{Source: colBandTable, Name: "band_table", Convert: convert.Code},
			{Source: colCashValueTable, Name: "cash_value_table", Convert: convert.OptionalCode},
			{Source: colModalProfileTable, Name: "charges_table", Convert: convert.Code},
			{Source: colUnisexRates, Name: "unisex_rates", Convert: convert.YesNo},
			{Source: colUnisexCashValues, Name: "unisex_cash_values", Convert: convert.OptionalYesNo},
		},
		Filter: &tableload.Filter{Column: colPlanCode, Allowed: products},
	}
}

func premiumRateSpec(tables []any) tableload.Spec {
	return tableload.Spec{
		Name: "premium rates",
		Columns: []tableload.Column{
			{Source: colPremiumTable, Name: "premium_table", Convert: convert.Code},
			{Source: colPremiumBand, Name: "premium_band", Convert: convert.Int},
			{Source: colIssueAge, Name: "issue_age", Convert: convert.Int},
			{Source: colSex, Name: "male_policy_gender", Convert: convert.Male},
			{Source: colRiskClass, Name: "risk_class", Convert: convert.Code},
			{Source: colPremiumPer1000, Name: "premium_per_1000", Convert: convert.Money},
		},
		Filter: &tableload.Filter{Column: colPremiumTable, Allowed: tables},
	}
}

func bandSpec(tables []any) tableload.Spec {
	return tableload.Spec{
		Name: "bands",
		Columns: []tableload.Column{
			{Source: colBandTable, Name: "band_table", Convert: convert.Code},
			{Source: colBand, Name: "premium_band", Convert: convert.Int},
			{Source: colMaxFaceUnits, Name: "max_face_units", Convert: convert.Float},
		},
		Filter: &tableload.Filter{Column: colBandTable, Allowed: tables},
	}
}

func modalProfileSpec(tables []any) tableload.Spec {
	return tableload.Spec{
		Name: "modal profiles",
		Columns: []tableload.Column{
			{Source: colModalProfileTable, Name: "charges_table", Convert: convert.Code},
			{Source: colBillingFrequency, Name: "billing_frequency", Convert: convert.BillingFrequency},
			{Source: colPaymentType, Name: "paid_by_invoice", Convert: convert.PaidByInvoice},
			{Source: colPremiumFactor, Name: "premium_factor", Convert: convert.Money},
			{Source: colModalPolicyFee, Name: "modal_policy_fee", Convert: convert.Money},
			{Source: colCollectionFee, Name: "collection_fee", Convert: convert.Money},
		},
		Filter: &tableload.Filter{Column: colModalProfileTable, Allowed: tables},
	}
}

func cashValueSpec(tables []any) tableload.Spec {
	return tableload.Spec{
		Name: "cash values",
		Columns: []tableload.Column{
			{Source: colCashValueTable, Name: "cash_value_table", Convert: convert.Code},
			{Source: colIssueAge, Name: "issue_age", Convert: convert.Int},
			{Source: colMaxPolicyYear, Name: "policy_year", Convert: convert.Int},
			{Source: colSex, Name: "male_policy_gender", Convert: convert.Male},
			{Source: colRiskClass, Name: "risk_class", Convert: convert.Code},
			{Source: colCashValuePer1000, Name: "cash_value_per_1000", Convert: convert.Money},
		},
		Filter: &tableload.Filter{Column: colCashValueTable, Allowed: tables},
	}
}
