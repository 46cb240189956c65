package domain

// RiskBand is the discrete risk classification derived from probability of default.
type RiskBand string

const (
	RiskLow      RiskBand = "Low"
	RiskModerate RiskBand = "Moderate"
	RiskHigh     RiskBand = "High"
)

// Rank orders bands Low < Moderate < High. Unknown bands rank below Low.
func (b RiskBand) Rank() int {
	switch b {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// Less reports whether b ranks strictly below other.
func (b RiskBand) Less(other RiskBand) bool {
	return b.Rank() < other.Rank()
}

// Valid reports whether b is one of the three known bands.
func (b RiskBand) Valid() bool {
	return b.Rank() > 0
}

// ParseRiskBand converts a band label into a RiskBand.
func ParseRiskBand(s string) (RiskBand, bool) {
	b := RiskBand(s)
	return b, b.Valid()
}

// RiskAssessment is the classifier output for one customer.
type RiskAssessment struct {
	CustomerID     string   `json:"customerId"`
	Probability    float64  `json:"probabilityOfDefault"`
	Band           RiskBand `json:"riskBand"`
	Reasons        []string `json:"reasons"`
	StabilityScore int      `json:"stabilityScore"`
}

// Priority is the operations worklist view of a customer.
type Priority struct {
	CustomerID    string  `json:"customerId"`
	Segment       string  `json:"segment"`
	Action        string  `json:"action"`
	Probability   float64 `json:"probabilityOfDefault"`
	Exposure      float64 `json:"exposure"`
	EMI           float64 `json:"emi"`
	Trend         string  `json:"trend"`
	ExpectedLoss  float64 `json:"expectedLoss"`
	PriorityScore float64 `json:"priorityScore"`
}

// PortfolioKPIs summarises risk across the whole customer book.
type PortfolioKPIs struct {
	TotalCustomers   int              `json:"totalCustomers"`
	TotalExposure    float64          `json:"totalExposure"`
	HighRiskExposure float64          `json:"highRiskExposure"`
	ExpectedLoss     float64          `json:"expectedLoss"`
	AveragePD        float64          `json:"averagePd"`
	BandCounts       map[RiskBand]int `json:"bandCounts"`
	ActionToday      int              `json:"actionRequiredToday"`
	PendingFollowUps int              `json:"pendingFollowUps"`
	AvgEMIHighRisk   float64          `json:"avgEmiHighRisk"`
}

// ConfusionMatrix counts cutoff decisions against observed outcomes.
// Positive means "predicted to default", i.e. rejected at the cutoff.
type ConfusionMatrix struct {
	TruePositive  int `json:"caught"`
	TrueNegative  int `json:"approved"`
	FalsePositive int `json:"rejectedGood"`
	FalseNegative int `json:"missed"`
}

// CutoffAnalysis back-tests a PD cutoff against labelled customers.
type CutoffAnalysis struct {
	Threshold     float64         `json:"threshold"`
	Labelled      int             `json:"labelled"`
	Unlabelled    int             `json:"unlabelled"`
	Matrix        ConfusionMatrix `json:"confusionMatrix"`
	ApprovalRate  float64         `json:"approvalRatePct"`
	BadRate       float64         `json:"badRateApprovedPct"`
	ProjectedLoss float64         `json:"projectedLoss"`
	Precision     float64         `json:"precision"`
	Recall        float64         `json:"recall"`
	F1            float64         `json:"f1"`
}
