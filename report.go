package fogsim

import (
	"gonum.org/v1/gonum/stat"
)

// Recorder keeps the run-wide response statistics, overall and per tier
type Recorder struct {
	response  *Tally
	tiers     map[Tier]*Tally
	penalized int
}

// CreateRecorder is a constructor
func CreateRecorder() *Recorder {
	rec := &Recorder{response: CreateTally("mean response time"), tiers: make(map[Tier]*Tally)}
	for _, tier := range Tiers {
		rec.tiers[tier] = CreateTally(TierToStr(tier) + " response time")
	}
	return rec
}

// Record makes Recorder an Observer of a Workload
func (rec *Recorder) Record(eng *Engine, out Outcome) {
	rec.response.Add(out.Response)
	rec.tiers[out.Tier].Add(out.Response)
	if out.Penalized {
		rec.penalized += 1
	}
}

func (rec *Recorder) Response() *Tally {
	return rec.response
}

func (rec *Recorder) TierResponse(tier Tier) *Tally {
	return rec.tiers[tier]
}

// Penalized is the number of recorded tasks whose response carries a fault penalty
func (rec *Recorder) Penalized() int {
	return rec.penalized
}

// TierReport is the share of recorded tasks a tier served
type TierReport struct {
	Tier     string  `json:"tier" yaml:"tier"`
	Count    int     `json:"count" yaml:"count"`
	Percent  float64 `json:"percent" yaml:"percent"`
	Response Summary `json:"response" yaml:"response"`
}

// NodeReport gathers what one node saw
type NodeReport struct {
	Name       string          `json:"name" yaml:"name"`
	Kind       string          `json:"kind" yaml:"kind"`
	Capacity   int             `json:"capacity" yaml:"capacity"`
	Throughput int             `json:"throughput" yaml:"throughput"`
	MeanUtil   float64         `json:"meanutil" yaml:"meanutil"`
	Resource   ResourceSummary `json:"resource" yaml:"resource"`
}

// AppReport gathers the responses of one application
type AppReport struct {
	Name      string             `json:"name" yaml:"name"`
	Device    int                `json:"device" yaml:"device"`
	Completed int                `json:"completed" yaml:"completed"`
	Response  Summary            `json:"response" yaml:"response"`
	Tiers     map[string]Summary `json:"tiers" yaml:"tiers"`
}

// LinkReport gathers the load a link carried
type LinkReport struct {
	Name     string  `json:"name" yaml:"name"`
	Distance float64 `json:"distance" yaml:"distance"`
	MaxLoad  float64 `json:"maxload" yaml:"maxload"`
}

// Report is everything a run exposes once it ends
type Report struct {
	RunID     string       `json:"runid" yaml:"runid"`
	Name      string       `json:"name" yaml:"name"`
	Policy    string       `json:"policy" yaml:"policy"`
	EndTime   float64      `json:"endtime" yaml:"endtime"`
	Tasks     int          `json:"tasks" yaml:"tasks"`
	Probes    int          `json:"probes" yaml:"probes"`
	Penalized int          `json:"penalized" yaml:"penalized"`
	Response  Summary      `json:"response" yaml:"response"`
	Tiers     []TierReport `json:"tiers" yaml:"tiers"`
	Nodes     []NodeReport `json:"nodes" yaml:"nodes"`
	Apps      []AppReport  `json:"apps" yaml:"apps"`
	Links     []LinkReport `json:"links" yaml:"links"`
}

// WriteToFile stores the Report to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (rpt *Report) WriteToFile(filename string) error {
	return writeByExt(filename, *rpt)
}

// tierReports condenses the recorder into one entry per tier
func tierReports(rec *Recorder) []TierReport {
	total := rec.response.NumberObs()
	reports := make([]TierReport, 0, len(Tiers))
	for _, tier := range Tiers {
		ty := rec.tiers[tier]
		tr := TierReport{Tier: TierToStr(tier), Count: ty.NumberObs(), Response: ty.Summarize()}
		if total > 0 {
			tr.Percent = 100.0 * float64(ty.NumberObs()) / float64(total)
		}
		reports = append(reports, tr)
	}
	return reports
}

// nodeReport condenses one node
func nodeReport(eng *Engine, node *Node) (NodeReport, error) {
	rsum, err := node.Rsrc.Summarize(eng)
	if err != nil {
		return NodeReport{}, err
	}
	nr := NodeReport{Name: node.Name, Kind: NodeKindToStr(node.Kind), Capacity: node.Rsrc.Capacity(),
		Throughput: node.Throughput(), Resource: rsum}
	samples := node.UtilSamples()
	if len(samples) > 0 {
		utils := make([]float64, len(samples))
		for idx, us := range samples {
			utils[idx] = us.Util
		}
		nr.MeanUtil = stat.Mean(utils, nil)
	}
	return nr, nil
}

// appReport condenses one application
func appReport(app *Application) AppReport {
	ar := AppReport{Name: app.Name, Device: app.Dev.ID, Completed: app.Completed(),
		Response: app.Responses().Summarize(), Tiers: make(map[string]Summary)}
	for _, tier := range Tiers {
		ar.Tiers[TierToStr(tier)] = app.TierResponses(tier).Summarize()
	}
	return ar
}
