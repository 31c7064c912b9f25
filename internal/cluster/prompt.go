package cluster

import (
	"fmt"
	"strings"
)

// systemPrompt renders the fixed clustering instruction. The output contract
// is restated in the prompt even when the provider enforces a JSON mode;
// prompt and schema drifting apart is the usual way this contract breaks.
func systemPrompt() string {
	var b strings.Builder

	b.WriteString("[PURPOSE]\n")
	b.WriteString("Cluster the provided search queries into semantically coherent groups for a query-performance dashboard.\n")

	b.WriteString("\n[RULES]\n")
	for _, r := range []string{
		"Group queries only by shared topic and search intent; do not group on surface string similarity alone.",
		"Every query in a cluster must align with the same user intent (informational, navigational, or transactional).",
		fmt.Sprintf("Each cluster must contain at least %d queries.", MinClusterSize),
		fmt.Sprintf("Return between %d and %d clusters.", MinClusters, MaxClusters),
		"Cluster names must be specific and actionable (e.g. \"Pricing comparison questions\"), never generic labels like \"Misc\" or \"Other\".",
		"Use only the query ids provided in the input; never invent ids.",
		"A query id may appear in at most one cluster.",
	} {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteByte('\n')
	}

	b.WriteString("\n[OUTPUT_FORMAT]\n")
	b.WriteString("Respond with a single JSON object and nothing else:\n")
	b.WriteString(`{"clusters": [{"name": "string", "queryIds": ["string"]}]}`)
	b.WriteByte('\n')

	return b.String()
}
