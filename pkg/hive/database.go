package hive

import "fmt"

type DatabaseParameters struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

func GenerateCreateDatabaseSQL(params DatabaseParameters, ignoreExists bool) string {
	ifNotExists := ""
	if ignoreExists {
		ifNotExists = " IF NOT EXISTS"
	}
	query := fmt.Sprintf("CREATE DATABASE%s %s", ifNotExists, params.Name)
	if params.Comment != "" {
		query += fmt.Sprintf(" COMMENT '%s'", escapeString(params.Comment))
	}
	if params.Location != "" {
		query += fmt.Sprintf(" LOCATION '%s'", escapeString(params.Location))
	}
	return query
}
