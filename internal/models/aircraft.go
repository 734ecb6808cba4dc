package models

// Aircraft is one row of the local aircraft registry, loaded from the
// OpenSky aircraft-database CSV. Only the columns used for announcements are
// kept.
type Aircraft struct {
	ICAO24           string // 6 hex digit ICAO address, primary key
	Registration     string // e.g. N12345
	ManufacturerICAO string
	ManufacturerName string
	Model            string
	TypeCode         string // ICAO type designator, e.g. B738
	Operator         string
	OperatorICAO     string
	Owner            string
	Built            string
}

// Label returns the spoken description of the airframe, preferring the type
// designator.
func (a *Aircraft) Label() string {
	if a.TypeCode != "" {
		return a.TypeCode
	}
	return a.Model
}
