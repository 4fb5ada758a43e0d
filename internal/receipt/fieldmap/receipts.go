package fieldmap

import "github.com/jwalitptl/frontdesk-api/internal/model"

// ViewModel is the typed shape one receipt template renders.
type ViewModel interface {
	ReceiptType() model.ReceiptType
	Header() PatientBlock
}

// PatientBlock is printed at the top of every receipt.
type PatientBlock struct {
	Name       string `json:"name"`
	RegNo      string `json:"reg_no"`
	Age        string `json:"age"`
	Gender     string `json:"gender"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Doctor     string `json:"doctor"`
	ReferredBy string `json:"referred_by"`
	Date       string `json:"date"`
	ReceiptNo  string `json:"receipt_no"`
}

func (p PatientBlock) Header() PatientBlock { return p }

// LineItem is one billed row.
type LineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Medicine is one prescribed drug row.
type Medicine struct {
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Duration string `json:"duration"`
	Timing   string `json:"timing"`
}

// LabTest is one ordered investigation.
type LabTest struct {
	Name        string  `json:"name"`
	Result      string  `json:"result"`
	NormalRange string  `json:"normal_range"`
	Amount      float64 `json:"amount"`
}

type CashReceipt struct {
	PatientBlock
	Items           Slots[LineItem] `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	DiscountPercent float64         `json:"discount_percent"`
	Discount        float64         `json:"discount"`
	Total           float64         `json:"total"`
	PaymentMode     string          `json:"payment_mode"`
}

func (CashReceipt) ReceiptType() model.ReceiptType { return model.ReceiptCash }

type PrescriptionReceipt struct {
	PatientBlock
	Diagnosis string          `json:"diagnosis"`
	Medicines Slots[Medicine] `json:"medicines"`
	Advice    string          `json:"advice"`
	NextVisit string          `json:"next_visit"`
}

func (PrescriptionReceipt) ReceiptType() model.ReceiptType { return model.ReceiptPrescription }

// Refraction is one row of the spectacle grid.
type Refraction struct {
	SPH  string `json:"sph"`
	CYL  string `json:"cyl"`
	Axis string `json:"axis"`
	VA   string `json:"va"`
}

// IsZero reports whether no cell of the row is filled.
func (r Refraction) IsZero() bool {
	return r == Refraction{}
}

// EyeReadings holds the measurements for one eye.
type EyeReadings struct {
	UnaidedVA string     `json:"unaided_va"`
	Distance  Refraction `json:"distance"`
	Near      Refraction `json:"near"`
	Add       string     `json:"add"`
	IOP       string     `json:"iop"`
}

type ReadingsReceipt struct {
	PatientBlock
	Right   EyeReadings `json:"right"`
	Left    EyeReadings `json:"left"`
	PD      string      `json:"pd"`
	Remarks string      `json:"remarks"`
}

func (ReadingsReceipt) ReceiptType() model.ReceiptType { return model.ReceiptReadings }

// HasNear reports whether the near-vision section should print.
func (r ReadingsReceipt) HasNear() bool {
	return !r.Right.Near.IsZero() || !r.Left.Near.IsZero() || r.Right.Add != "" || r.Left.Add != ""
}

// HasIOP reports whether the tonometry row should print.
func (r ReadingsReceipt) HasIOP() bool {
	return r.Right.IOP != "" || r.Left.IOP != ""
}

type OperationReceipt struct {
	PatientBlock
	Procedure     string          `json:"procedure"`
	Eye           string          `json:"eye"`
	Surgeon       string          `json:"surgeon"`
	OperationDate string          `json:"operation_date"`
	Anaesthesia   string          `json:"anaesthesia"`
	Lens          string          `json:"lens"`
	Charges       Slots[LineItem] `json:"charges"`
	Total         float64         `json:"total"`
	Advance       float64         `json:"advance"`
	Balance       float64         `json:"balance"`
}

func (OperationReceipt) ReceiptType() model.ReceiptType { return model.ReceiptOperation }

// FindingRow is one anterior/posterior segment structure, per eye.
type FindingRow struct {
	Label string `json:"label"`
	Right string `json:"right"`
	Left  string `json:"left"`
}

type ClinicalReceipt struct {
	PatientBlock
	ChiefComplaint string       `json:"chief_complaint"`
	History        string       `json:"history"`
	Findings       []FindingRow `json:"findings"`
	Diagnosis      string       `json:"diagnosis"`
	Plan           string       `json:"plan"`
}

func (ClinicalReceipt) ReceiptType() model.ReceiptType { return model.ReceiptClinical }

type DischargeReceipt struct {
	PatientBlock
	AdmissionDate string          `json:"admission_date"`
	DischargeDate string          `json:"discharge_date"`
	Diagnosis     string          `json:"diagnosis"`
	Procedure     string          `json:"procedure"`
	Surgeon       string          `json:"surgeon"`
	Condition     string          `json:"condition"`
	Medicines     Slots[Medicine] `json:"medicines"`
	FollowUp      string          `json:"follow_up"`
	Instructions  string          `json:"instructions"`
}

func (DischargeReceipt) ReceiptType() model.ReceiptType { return model.ReceiptDischarge }

type LabReceipt struct {
	PatientBlock
	Tests   Slots[LabTest] `json:"tests"`
	Total   float64        `json:"total"`
	Remarks string         `json:"remarks"`
}

func (LabReceipt) ReceiptType() model.ReceiptType { return model.ReceiptLab }

type ExternalLabReceipt struct {
	PatientBlock
	LabName         string         `json:"lab_name"`
	Tests           Slots[LabTest] `json:"tests"`
	DiscountPercent float64        `json:"discount_percent"`
	Total           float64        `json:"total"`
	Remarks         string         `json:"remarks"`
}

func (ExternalLabReceipt) ReceiptType() model.ReceiptType { return model.ReceiptExternalLab }
