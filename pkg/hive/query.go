package hive

import (
	"fmt"
	"sort"
	"strings"
)

func GenerateShowDatabasesLikeSQL(pattern string) string {
	return fmt.Sprintf("SHOW DATABASES LIKE '%s'", escapeString(pattern))
}

func GenerateDropTableSQL(dbName, tableName string, ignoreNotExists, purge bool) string {
	ifExists := ""
	if ignoreNotExists {
		ifExists = " IF EXISTS"
	}
	purgeStr := ""
	if purge {
		purgeStr = " PURGE"
	}
	return fmt.Sprintf("DROP TABLE%s %s%s", ifExists, TableName(dbName, tableName), purgeStr)
}

// GenerateRepairTableSQL returns a statement that loads partitions which
// exist in the table location but are missing from the metastore.
func GenerateRepairTableSQL(dbName, tableName string) string {
	return fmt.Sprintf("MSCK REPAIR TABLE %s", TableName(dbName, tableName))
}

// GenerateCreateTableSQL returns a CREATE statement for params. If
// params.External is set, an external table is created.
func GenerateCreateTableSQL(params TableParameters, ignoreExists bool) string {
	tableType := ""
	if params.External {
		tableType = "EXTERNAL "
	}
	ifNotExists := ""
	if ignoreExists {
		ifNotExists = "IF NOT EXISTS "
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE %sTABLE %s%s (\n%s\n)", tableType, ifNotExists, TableName(params.Database, params.Name), generateColumnListSQL(params.Columns))
	if len(params.PartitionedBy) != 0 {
		fmt.Fprintf(&b, "\nPARTITIONED BY (%s)", strings.Join(columnDefinitions(params.PartitionedBy), ", "))
	}
	if params.SerDe != "" {
		fmt.Fprintf(&b, "\nROW FORMAT SERDE '%s'", params.SerDe)
		if len(params.SerDeProperties) != 0 {
			fmt.Fprintf(&b, "\nWITH SERDEPROPERTIES (%s)", generatePropertiesSQL(params.SerDeProperties))
		}
	}
	if params.InputFormat != "" && params.OutputFormat != "" {
		fmt.Fprintf(&b, "\nSTORED AS INPUTFORMAT '%s'\nOUTPUTFORMAT '%s'", params.InputFormat, params.OutputFormat)
	}
	if params.Location != "" {
		fmt.Fprintf(&b, "\nLOCATION '%s'", escapeString(params.Location))
	}
	if len(params.TableProperties) != 0 {
		fmt.Fprintf(&b, "\nTBLPROPERTIES (%s)", generatePropertiesSQL(params.TableProperties))
	}
	return b.String()
}

func generateColumnListSQL(columns []Column) string {
	return "\t" + strings.Join(columnDefinitions(columns), ",\n\t")
}

func columnDefinitions(columns []Column) []string {
	c := make([]string, len(columns))
	for i, col := range columns {
		c[i] = fmt.Sprintf("`%s` %s", col.Name, col.Type)
	}
	return c
}

// generatePropertiesSQL formats properties as 'key'='value' pairs, sorted
// by key so the generated statement is stable.
func generatePropertiesSQL(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("'%s'='%s'", escapeString(k), escapeString(props[k]))
	}
	return strings.Join(pairs, ", ")
}

func escapeString(s string) string {
	return strings.Replace(s, "'", "''", -1)
}
