package fieldmap

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jwalitptl/frontdesk-api/internal/model"
)

// ErrUnknownType is returned by Map for a receipt type with no layout.
var ErrUnknownType = errors.New("unknown receipt type")

// clinicalStructures are printed in this order on the findings sheet.
var clinicalStructures = []struct {
	Label  string
	Phrase string
}{
	{"Lids", "LIDS"},
	{"Conjunctiva", "CONJUNCTIVA"},
	{"Cornea", "CORNEA"},
	{"Anterior Chamber", "AC"},
	{"Iris", "IRIS"},
	{"Pupil", "PUPIL"},
	{"Lens", "LENS"},
	{"Vitreous", "VITREOUS"},
	{"Fundus", "FUNDUS"},
}

// Map resolves fields into the view-model for t. Missing fields become
// empty strings or zero; the only error is an unknown type.
func Map(fields map[string]interface{}, t model.ReceiptType) (ViewModel, error) {
	switch t {
	case model.ReceiptCash:
		return mapCash(fields), nil
	case model.ReceiptPrescription:
		return mapPrescription(fields), nil
	case model.ReceiptReadings:
		return mapReadings(fields), nil
	case model.ReceiptOperation:
		return mapOperation(fields), nil
	case model.ReceiptClinical:
		return mapClinical(fields), nil
	case model.ReceiptDischarge:
		return mapDischarge(fields), nil
	case model.ReceiptLab:
		return mapLab(fields), nil
	case model.ReceiptExternalLab:
		return mapExternalLab(fields), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

// MapRecord maps a stored record, falling back to the record's own
// sequence id and visit date when the form did not carry them.
func MapRecord(record *model.Record, t model.ReceiptType) (ViewModel, error) {
	fields := make(map[string]interface{}, len(record.Fields)+2)
	for k, v := range record.Fields {
		fields[k] = v
	}
	if _, ok := Lookup(fields, ReceiptNo); !ok && record.SeqID > 0 {
		fields[string(ReceiptNo)] = strconv.FormatInt(record.SeqID, 10)
	}
	if _, ok := Lookup(fields, VisitDate); !ok && !record.VisitDate.IsZero() {
		fields[string(VisitDate)] = record.VisitDate.Format("2006-01-02")
	}
	return Map(fields, t)
}

func patientBlock(fields map[string]interface{}) PatientBlock {
	return PatientBlock{
		Name:       Text(fields, PatientName),
		RegNo:      Text(fields, RegNo),
		Age:        Text(fields, Age),
		Gender:     Text(fields, Gender),
		Phone:      Text(fields, Phone),
		Email:      Text(fields, Email),
		Address:    Text(fields, Address),
		Doctor:     Text(fields, Doctor),
		ReferredBy: Text(fields, ReferredBy),
		Date:       Text(fields, VisitDate),
		ReceiptNo:  Text(fields, ReceiptNo),
	}
}

func lineItems(fields map[string]interface{}) Slots[LineItem] {
	return collectSlots(fields, ParticularsSlot, func(n int, name string) LineItem {
		return LineItem{Description: name, Amount: SlotValue(fields, AmountSlot, n)}
	})
}

func medicines(fields map[string]interface{}, primary SlotField) Slots[Medicine] {
	return collectSlots(fields, primary, func(n int, name string) Medicine {
		return Medicine{
			Name:     name,
			Dosage:   SlotText(fields, DosageSlot, n),
			Duration: SlotText(fields, DurationSlot, n),
			Timing:   SlotText(fields, TimingSlot, n),
		}
	})
}

func labTests(fields map[string]interface{}, primary, amount SlotField) Slots[LabTest] {
	return collectSlots(fields, primary, func(n int, name string) LabTest {
		return LabTest{
			Name:        name,
			Result:      SlotText(fields, ResultSlot, n),
			NormalRange: SlotText(fields, NormalRangeSlot, n),
			Amount:      SlotValue(fields, amount, n),
		}
	})
}

func sumItems(s Slots[LineItem]) float64 {
	total := 0.0
	for _, e := range s.Present() {
		total += e.Item.Amount
	}
	return total
}

func sumTests(s Slots[LabTest]) float64 {
	total := 0.0
	for _, e := range s.Present() {
		total += e.Item.Amount
	}
	return total
}

// orAmount prefers an explicitly entered figure over a computed one.
func orAmount(fields map[string]interface{}, f Field, computed float64) float64 {
	if _, ok := Lookup(fields, f); ok {
		return Amount(fields, f)
	}
	return computed
}

func mapCash(fields map[string]interface{}) CashReceipt {
	r := CashReceipt{
		PatientBlock:    patientBlock(fields),
		Items:           lineItems(fields),
		DiscountPercent: Amount(fields, DiscountPercent),
		PaymentMode:     Text(fields, PaymentMode),
	}
	if r.Items.Len() == 0 {
		if fee := Amount(fields, ConsultationFee); fee > 0 {
			r.Items.Set(1, LineItem{Description: "Consultation", Amount: fee})
		}
	}
	r.Subtotal = sumItems(r.Items)
	r.Discount = orAmount(fields, Discount, r.Subtotal*r.DiscountPercent/100)
	r.Total = orAmount(fields, TotalAmount, r.Subtotal-r.Discount)
	return r
}

func mapPrescription(fields map[string]interface{}) PrescriptionReceipt {
	return PrescriptionReceipt{
		PatientBlock: patientBlock(fields),
		Diagnosis:    Text(fields, Diagnosis),
		Medicines:    medicines(fields, MedicineSlot),
		Advice:       Text(fields, Advice),
		NextVisit:    Text(fields, NextVisit),
	}
}

func refraction(fields map[string]interface{}, eye, distance string) Refraction {
	cell := func(param string) string {
		return Text(fields, Field(eye+" "+distance+" "+param))
	}
	return Refraction{
		SPH:  cell("SPH"),
		CYL:  cell("CYL"),
		Axis: cell("AXIS"),
		VA:   cell("VA"),
	}
}

func eyeReadings(fields map[string]interface{}, eye string) EyeReadings {
	return EyeReadings{
		UnaidedVA: Text(fields, Field(eye+" VA")),
		Distance:  refraction(fields, eye, "DV"),
		Near:      refraction(fields, eye, "NV"),
		Add:       Text(fields, Field(eye+" ADD")),
		IOP:       Text(fields, Field(eye+" IOP")),
	}
}

func mapReadings(fields map[string]interface{}) ReadingsReceipt {
	return ReadingsReceipt{
		PatientBlock: patientBlock(fields),
		Right:        eyeReadings(fields, "RE"),
		Left:         eyeReadings(fields, "LE"),
		PD:           Text(fields, PD),
		Remarks:      Text(fields, Remarks),
	}
}

func mapOperation(fields map[string]interface{}) OperationReceipt {
	r := OperationReceipt{
		PatientBlock:  patientBlock(fields),
		Procedure:     Text(fields, Procedure),
		Eye:           Text(fields, OperatedEye),
		Surgeon:       Text(fields, Surgeon),
		OperationDate: Text(fields, OperationDate),
		Anaesthesia:   Text(fields, Anaesthesia),
		Lens:          Text(fields, Lens),
		Charges:       lineItems(fields),
		Advance:       Amount(fields, Advance),
	}
	r.Total = orAmount(fields, TotalAmount, sumItems(r.Charges))
	r.Balance = orAmount(fields, Balance, r.Total-r.Advance)
	return r
}

func mapClinical(fields map[string]interface{}) ClinicalReceipt {
	r := ClinicalReceipt{
		PatientBlock:   patientBlock(fields),
		ChiefComplaint: Text(fields, ChiefComplaint),
		History:        Text(fields, History),
		Diagnosis:      Text(fields, Diagnosis),
		Plan:           Text(fields, Plan),
	}
	for _, s := range clinicalStructures {
		row := FindingRow{
			Label: s.Label,
			Right: Text(fields, Field("RE "+s.Phrase)),
			Left:  Text(fields, Field("LE "+s.Phrase)),
		}
		if row.Right == "" && row.Left == "" {
			continue
		}
		r.Findings = append(r.Findings, row)
	}
	return r
}

func mapDischarge(fields map[string]interface{}) DischargeReceipt {
	meds := medicines(fields, DischargeMedicineSlot)
	if meds.Len() == 0 {
		meds = medicines(fields, MedicineSlot)
	}
	return DischargeReceipt{
		PatientBlock:  patientBlock(fields),
		AdmissionDate: Text(fields, AdmissionDate),
		DischargeDate: Text(fields, DischargeDate),
		Diagnosis:     Text(fields, Diagnosis),
		Procedure:     Text(fields, Procedure),
		Surgeon:       Text(fields, Surgeon),
		Condition:     Text(fields, Condition),
		Medicines:     meds,
		FollowUp:      Text(fields, FollowUp),
		Instructions:  Text(fields, Instructions),
	}
}

func mapLab(fields map[string]interface{}) LabReceipt {
	r := LabReceipt{
		PatientBlock: patientBlock(fields),
		Tests:        labTests(fields, LabTestSlot, AmountSlot),
		Remarks:      Text(fields, Remarks),
	}
	r.Total = orAmount(fields, TotalAmount, sumTests(r.Tests))
	return r
}

func mapExternalLab(fields map[string]interface{}) ExternalLabReceipt {
	r := ExternalLabReceipt{
		PatientBlock:    patientBlock(fields),
		LabName:         Text(fields, ExternalLab),
		Tests:           labTests(fields, ExternalTestSlot, ExternalAmountSlot),
		DiscountPercent: Amount(fields, DiscountPercent),
		Remarks:         Text(fields, Remarks),
	}
	subtotal := sumTests(r.Tests)
	r.Total = subtotal - subtotal*r.DiscountPercent/100
	return r
}
