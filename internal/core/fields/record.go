package fields

import "github.com/joseph-ayodele/offerscan/constants"

// Record is the Name/Company/Duration triple extracted for one document.
type Record struct {
	Name     string
	Company  string
	Duration string
}

// ErrorRecord is the sentinel stored when a document cannot be rendered or read.
func ErrorRecord() Record {
	return Record{Name: constants.ErrorValue, Company: constants.ErrorValue, Duration: constants.ErrorValue}
}

// IsError reports whether r is the error sentinel.
func (r Record) IsError() bool {
	return r == ErrorRecord()
}

// Values returns the fields in column order.
func (r Record) Values() []string {
	return []string{r.Name, r.Company, r.Duration}
}

// Map keys the fields by export column name.
func (r Record) Map() map[string]string {
	return map[string]string{
		constants.ColumnName:     r.Name,
		constants.ColumnCompany:  r.Company,
		constants.ColumnDuration: r.Duration,
	}
}
