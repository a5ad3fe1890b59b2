package payslip

const DefaultEffectiveWorkDays = 31

type PageFormat string

const (
	FormatA4     PageFormat = "A4"
	FormatLetter PageFormat = "Letter"
)

type BatchStatus string

const (
	BatchAccepted   BatchStatus = "accepted"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	// BatchAbandoned marks a run that never finished, usually because the
	// process stopped mid-batch.
	BatchAbandoned BatchStatus = "abandoned"
)

// Pipeline stages a row can fail in.
const (
	StageSchedule  = "schedule"
	StageValidate  = "validate"
	StageReconcile = "reconcile"
	StageRender    = "render"
	StagePersist   = "persist"
)

// Column names of the upload sheet.
const (
	ColEmployeeNo        = "employeeNo"
	ColName              = "name"
	ColJoiningDate       = "joiningDate"
	ColDesignation       = "designation"
	ColDepartment        = "department"
	ColLocation          = "location"
	ColBankName          = "bankName"
	ColBankAccountNo     = "bankAccountNo"
	ColIFSCCode          = "ifscCode"
	ColPANNumber         = "panNumber"
	ColPFNumber          = "pfNumber"
	ColPFUAN             = "pfUan"
	ColPayPeriod         = "payPeriod"
	ColPayDate           = "payDate"
	ColEffectiveWorkDays = "effectiveWorkDays"
	ColLOP               = "lop"
	ColELAvailed         = "elAvailed"
	ColBasicFull         = "basicFull"
	ColBasicActual       = "basicActual"
	ColHRAFull           = "hraFull"
	ColHRAActual         = "hraActual"
	ColConveyanceFull    = "conveyanceAllowanceFull"
	ColConveyanceActual  = "conveyanceAllowanceActual"
	ColOtherFull         = "otherAllowanceFull"
	ColOtherActual       = "otherAllowanceActual"
	ColSpecialFull       = "specialAllowanceFull"
	ColSpecialActual     = "specialAllowanceActual"
	ColBonusFull         = "bounsIncentiveFull"
	ColBonusActual       = "bounsIncentiveActual"
	ColPFActual          = "pfActual"
	ColProfTaxActual     = "profTaxActual"
	ColEmployerPF        = "employerPf"
)

// Columns is the header order of the CSV template.
var Columns = []string{
	ColEmployeeNo, ColName, ColJoiningDate, ColDesignation, ColDepartment, ColLocation,
	ColBankName, ColBankAccountNo, ColIFSCCode, ColPANNumber, ColPFNumber, ColPFUAN,
	ColPayPeriod, ColPayDate, ColEffectiveWorkDays, ColLOP, ColELAvailed,
	ColBasicFull, ColBasicActual, ColHRAFull, ColHRAActual,
	ColConveyanceFull, ColConveyanceActual, ColOtherFull, ColOtherActual,
	ColSpecialFull, ColSpecialActual, ColBonusFull, ColBonusActual,
	ColPFActual, ColProfTaxActual, ColEmployerPF,
}
