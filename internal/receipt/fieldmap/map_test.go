package fieldmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk-api/internal/model"
)

func TestMap_UnknownType(t *testing.T) {
	_, err := Map(nil, model.ReceiptType("xray"))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMap_EveryTypeToleratesEmptyRecord(t *testing.T) {
	for _, rt := range model.ReceiptTypes {
		for _, fields := range []map[string]interface{}{nil, {}} {
			vm, err := Map(fields, rt)
			require.NoError(t, err, rt)
			assert.Equal(t, rt, vm.ReceiptType())
			assert.Equal(t, PatientBlock{}, vm.Header())
		}
	}
}

func TestMap_CashScenario(t *testing.T) {
	fields := map[string]interface{}{
		"PATIENT NAME": "Asha Rao",
		"PHONE NUMBER": "09876543210",
	}
	vm, err := Map(fields, model.ReceiptCash)
	require.NoError(t, err)

	cash := vm.(CashReceipt)
	assert.Equal(t, "Asha Rao", cash.Name)
	assert.Equal(t, "09876543210", cash.Phone)
	assert.Zero(t, cash.Items.Len())
	assert.Zero(t, cash.Total)
}

func TestMap_CashTotals(t *testing.T) {
	fields := map[string]interface{}{
		"patientName":      "Ravi",
		"PARTICULARS 1":    "Consultation",
		"AMOUNT 1":         "300",
		"PARTICULARS 2":    "Refraction",
		"AMOUNT 2":         200.0,
		"DISCOUNT PERCENT": 10,
	}
	cash := mustMap(t, fields, model.ReceiptCash).(CashReceipt)
	assert.Equal(t, 500.0, cash.Subtotal)
	assert.Equal(t, 50.0, cash.Discount)
	assert.Equal(t, 450.0, cash.Total)

	fields["TOTAL AMOUNT"] = 400
	cash = mustMap(t, fields, model.ReceiptCash).(CashReceipt)
	assert.Equal(t, 400.0, cash.Total)
}

func TestMap_CashFallsBackToConsultationFee(t *testing.T) {
	cash := mustMap(t, map[string]interface{}{"fees": 250}, model.ReceiptCash).(CashReceipt)
	item, ok := cash.Items.At(1)
	require.True(t, ok)
	assert.Equal(t, LineItem{Description: "Consultation", Amount: 250}, item)
	assert.Equal(t, 250.0, cash.Total)
}

func TestMap_LabScenario(t *testing.T) {
	fields := map[string]interface{}{
		"LAB TEST 1": "CBC",
		"AMOUNT 1":   150,
		"LAB TEST 2": "",
	}
	lab := mustMap(t, fields, model.ReceiptLab).(LabReceipt)

	present := lab.Tests.Present()
	require.Len(t, present, 1)
	assert.Equal(t, "CBC", present[0].Item.Name)
	assert.Equal(t, 150.0, present[0].Item.Amount)
	assert.Equal(t, 150.0, lab.Total)
}

func TestMap_EmptyNameSlotExcludedEvenWithAmount(t *testing.T) {
	fields := map[string]interface{}{
		"LAB TEST 1": "",
		"AMOUNT 1":   500,
		"LAB TEST 3": "Blood Sugar",
		"AMOUNT 3":   80,
	}
	lab := mustMap(t, fields, model.ReceiptLab).(LabReceipt)
	present := lab.Tests.Present()
	require.Len(t, present, 1)
	assert.Equal(t, 3, present[0].Slot)
	assert.Equal(t, 80.0, lab.Total)
}

func TestMap_Readings(t *testing.T) {
	fields := map[string]interface{}{
		"RE DV SPH": "-1.25",
		"RE_DV_CYL": "-0.50",
		"reDvAxis":  "180",
		"LE DV SPH": "-1.00",
		"LE NV SPH": "+1.50",
		"RE IOP":    "14",
		"PD":        "62",
	}
	r := mustMap(t, fields, model.ReceiptReadings).(ReadingsReceipt)
	assert.Equal(t, Refraction{SPH: "-1.25", CYL: "-0.50", Axis: "180"}, r.Right.Distance)
	assert.Equal(t, "-1.00", r.Left.Distance.SPH)
	assert.True(t, r.HasNear())
	assert.True(t, r.HasIOP())
	assert.Equal(t, "62", r.PD)

	empty := mustMap(t, nil, model.ReceiptReadings).(ReadingsReceipt)
	assert.False(t, empty.HasNear())
	assert.False(t, empty.HasIOP())
}

func TestMap_OperationBalance(t *testing.T) {
	fields := map[string]interface{}{
		"OPERATION":     "Phaco + IOL",
		"PARTICULARS 1": "Surgery",
		"AMOUNT 1":      25000,
		"PARTICULARS 2": "Lens",
		"AMOUNT 2":      8000,
		"ADVANCE":       10000,
	}
	op := mustMap(t, fields, model.ReceiptOperation).(OperationReceipt)
	assert.Equal(t, "Phaco + IOL", op.Procedure)
	assert.Equal(t, 33000.0, op.Total)
	assert.Equal(t, 23000.0, op.Balance)
}

func TestMap_ClinicalOnlyFilledRows(t *testing.T) {
	fields := map[string]interface{}{
		"RE CORNEA": "Clear",
		"LE LENS":   "NS2",
	}
	c := mustMap(t, fields, model.ReceiptClinical).(ClinicalReceipt)
	require.Len(t, c.Findings, 2)
	assert.Equal(t, FindingRow{Label: "Cornea", Right: "Clear"}, c.Findings[0])
	assert.Equal(t, FindingRow{Label: "Lens", Left: "NS2"}, c.Findings[1])
}

func TestMap_DischargeFallsBackToMedicines(t *testing.T) {
	fields := map[string]interface{}{
		"MEDICINE 1": "Moxifloxacin drops",
		"DOSAGE 1":   "1 drop x 4",
	}
	d := mustMap(t, fields, model.ReceiptDischarge).(DischargeReceipt)
	m, ok := d.Medicines.At(1)
	require.True(t, ok)
	assert.Equal(t, "1 drop x 4", m.Dosage)
}

func TestMap_ExternalLab(t *testing.T) {
	fields := map[string]interface{}{
		"LAB NAME":         "City Diagnostics",
		"VLAB TEST 1":      "OCT Macula",
		"VLAB AMOUNT 1":    1200,
		"DISCOUNT PERCENT": 25,
	}
	v := mustMap(t, fields, model.ReceiptExternalLab).(ExternalLabReceipt)
	assert.Equal(t, "City Diagnostics", v.LabName)
	assert.Equal(t, 900.0, v.Total)
}

func TestMapRecord_FallsBackToRecordMeta(t *testing.T) {
	record := &model.Record{
		Kind:      model.RecordKindPatient,
		SeqID:     57,
		VisitDate: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC),
		Fields:    model.JSONMap{"PATIENT NAME": "Asha Rao"},
	}
	vm, err := MapRecord(record, model.ReceiptCash)
	require.NoError(t, err)
	assert.Equal(t, "57", vm.Header().ReceiptNo)
	assert.Equal(t, "2024-05-09", vm.Header().Date)
	assert.NotContains(t, record.Fields, "RECEIPT NO")

	record.Fields["DATE"] = "01/05/2024"
	vm, err = MapRecord(record, model.ReceiptCash)
	require.NoError(t, err)
	assert.Equal(t, "01/05/2024", vm.Header().Date)
}

func mustMap(t *testing.T, fields map[string]interface{}, rt model.ReceiptType) ViewModel {
	t.Helper()
	vm, err := Map(fields, rt)
	require.NoError(t, err)
	return vm
}
