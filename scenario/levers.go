package scenario

//Boolean levers of the Botlek cluster model. Each lever selects one of two sets of bounds for the
//decision variables of a design alternative
const (
	LeverSteamPipe       = "steam_pipe"
	LeverEBoiler         = "e_boiler"
	LeverChlorineStorage = "chlorine_storage"
)

//Bound overrides one model variable
type Bound struct {
	Key   string
	Value float64
}

//LeverTable holds the bounds for both states of a lever. Both sides list the same keys
type LeverTable struct {
	True  []Bound
	False []Bound
}

//Bounds returns the bounds for the given lever state
func (l LeverTable) Bounds(on bool) []Bound {
	if on {
		return l.True
	}
	return l.False
}

//DefaultLevers returns the bound tables of the steam pipe, e-boiler and chlorine storage alternatives
func DefaultLevers() map[string]LeverTable {
	return map[string]LeverTable{
		LeverSteamPipe: {
			True: []Bound{
				{"Option: transport to Nouryon (Steam pipe owner):UB", 7.5},
				{"FUTURE: transport 5210 site (Steam pipe owner):UB", 30},
				{"Financiering Steam Pipe (Steam pipe owner):LB", 1},
				{"Financiering Steam Pipe (Steam pipe owner):UB", 1},
			},
			False: []Bound{
				{"Option: transport to Nouryon (Steam pipe owner):UB", 0},
				{"FUTURE: transport 5210 site (Steam pipe owner):UB", 0},
				{"Financiering Steam Pipe (Steam pipe owner):LB", 0},
				{"Financiering Steam Pipe (Steam pipe owner):UB", 0},
			},
		},
		LeverEBoiler: {
			True: []Bound{
				{"Electrode boiler 50 bar 2/7 aFRR (Air Liquide):UB", 5},
				{"electrode boiler 50 bar 5/7 inzetbaar (Air Liquide):UB", 17.5},
				{"by-pass aFRR (ghost actor):UB", 0},
				{"AL 50 bar fixed rate (Air Liquide):LB", 22.5},
				{"AL 50 bar fixed rate (Air Liquide):UB", 22.5},
				{"DA inkoop EB70 (Air Liquide):UB", 6},
				{"Cogen A Gasturbine (Air Liquide):UB", 0},
				{"Cogen A Brander (Air Liquide):UB", 0},
				{"Cogen B gasturbine (Air Liquide):UB", 0},
				{"Cogen B Brander (Air Liquide):UB", 0},
			},
			False: []Bound{
				{"Electrode boiler 50 bar 2/7 aFRR (Air Liquide):UB", 0},
				{"electrode boiler 50 bar 5/7 inzetbaar (Air Liquide):UB", 0},
				{"by-pass aFRR (ghost actor):UB", 5},
				{"AL 50 bar fixed rate (Air Liquide):LB", 0},
				{"AL 50 bar fixed rate (Air Liquide):UB", 0},
				{"DA inkoop EB70 (Air Liquide):UB", 0},
				{"Cogen A Gasturbine (Air Liquide):UB", 0},
				{"Cogen A Brander (Air Liquide):UB", 32.5},
				{"Cogen B gasturbine (Air Liquide):UB", 0},
				{"Cogen B Brander (Air Liquide):UB", 32.5},
			},
		},
		LeverChlorineStorage: {
			True: []Bound{
				{"stored CL2 (Nouryon):UB", 3200},
				{"stored CL2 (Nouryon):InSt", 3200},
			},
			False: []Bound{
				{"stored CL2 (Nouryon):UB", 1600},
				{"stored CL2 (Nouryon):InSt", 1600},
			},
		},
	}
}
