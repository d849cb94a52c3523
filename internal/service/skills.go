package service

import (
	"strings"

	"github.com/supportdesk/backend/internal/models"
)

type skillSynonym struct {
	keyword string
	tags    []string
}

// skillSynonyms maps free-text keywords to canonical skill tags. Both the
// entry order and the tag order inside an entry are load-bearing: containment
// matching takes the first entry that fires, and tag lists rank equally valid
// synonyms.
var skillSynonyms = []skillSynonym{
	{"email", []string{"Microsoft_365"}},
	{"outlook", []string{"Microsoft_365"}},
	{"sharepoint", []string{"SharePoint_Online", "Microsoft_365"}},
	{"teams", []string{"Microsoft_365"}},
	{"onedrive", []string{"Microsoft_365"}},
	{"microsoft 365", []string{"Microsoft_365"}},
	{"office 365", []string{"Microsoft_365"}},
	{"windows", []string{"Windows_OS", "Windows_Server_2022"}},
	{"linux", []string{"Linux_Administration"}},
	{"database", []string{"Database_SQL"}},
	{"sql", []string{"Database_SQL"}},
	{"network", []string{"Networking", "Network_Security"}},
	{"vpn", []string{"VPN_Troubleshooting", "Networking"}},
	{"firewall", []string{"Firewall_Configuration", "Network_Security"}},
	{"security", []string{"Network_Security", "Endpoint_Security"}},
	{"malware", []string{"Antivirus_Malware", "Endpoint_Security"}},
	{"phishing", []string{"Phishing_Analysis", "Endpoint_Security"}},
	{"hardware", []string{"Hardware_Diagnostics"}},
	{"laptop", []string{"Laptop_Repair", "Hardware_Diagnostics"}},
	{"printer", []string{"Printer_Troubleshooting"}},
	{"voip", []string{"Voice_VoIP"}},
	{"phone", []string{"Voice_VoIP"}},
	{"azure", []string{"Cloud_Azure"}},
	{"aws", []string{"Cloud_AWS"}},
	{"cloud", []string{"Cloud_Azure", "Cloud_AWS"}},
	{"active directory", []string{"Active_Directory"}},
	{"ad", []string{"Active_Directory"}},
	{"dns", []string{"DNS_Configuration", "Networking"}},
	{"ssl", []string{"SSL_Certificates"}},
	{"certificate", []string{"SSL_Certificates"}},
	{"powershell", []string{"PowerShell_Scripting"}},
	{"script", []string{"PowerShell_Scripting", "Python_Scripting"}},
	{"python", []string{"Python_Scripting"}},
	{"mac", []string{"Mac_OS"}},
	{"macos", []string{"Mac_OS"}},
	{"api", []string{"API_Troubleshooting"}},
	{"web", []string{"Web_Server_Apache_Nginx"}},
	{"server", []string{"Web_Server_Apache_Nginx", "Windows_Server_2022"}},
	{"samba", []string{"Linux_Administration"}},
	{"jenkins", []string{"DevOps_CI_CD"}},
	{"docker", []string{"Kubernetes_Docker"}},
	{"kubernetes", []string{"Kubernetes_Docker"}},
	{"switch", []string{"Switch_Configuration", "Networking"}},
	{"router", []string{"Routing_Protocols", "Networking"}},
	{"cisco", []string{"Cisco_IOS", "Networking"}},
	{"monitoring", []string{"Network_Monitoring", "SIEM_Logging"}},
	{"siem", []string{"SIEM_Logging"}},
	{"endpoint", []string{"Endpoint_Management", "Endpoint_Security"}},
	{"virtualization", []string{"Virtualization_VMware"}},
	{"vmware", []string{"Virtualization_VMware"}},
	{"licensing", []string{"Software_Licensing"}},
	{"saas", []string{"SaaS_Integrations"}},
	{"integration", []string{"SaaS_Integrations"}},
	{"backup", []string{"Database_SQL", "Linux_Administration"}},
	{"boot", []string{"Hardware_Diagnostics", "Windows_OS"}},
	{"wifi", []string{"Networking", "Network_Security"}},
	{"cable", []string{"Network_Cabling", "Hardware_Diagnostics"}},
}

var skillSynonymIndex = buildSkillSynonymIndex()

func buildSkillSynonymIndex() map[string][]string {
	index := make(map[string][]string, len(skillSynonyms))
	for _, entry := range skillSynonyms {
		index[entry.keyword] = entry.tags
	}
	return index
}

// ResolveSkillLevel resolves a ticket keyword to the agent's proficiency level
// for the matching skill area. Unknown keywords resolve to 0; that is a normal
// outcome, not an error.
func ResolveSkillLevel(agent models.Agent, keyword string) int {
	lower := strings.ToLower(keyword)

	// Direct match against the agent's own skill tags, dataset order.
	for _, tag := range agent.Skills.Tags() {
		normalized := strings.ReplaceAll(strings.ToLower(tag), "_", " ")
		if strings.Contains(normalized, lower) {
			level, _ := agent.Skills.Level(tag)
			return level
		}
	}

	// Exact synonym key.
	if tags, ok := skillSynonymIndex[lower]; ok {
		for _, tag := range tags {
			if level, ok := agent.Skills.Level(tag); ok {
				return level
			}
		}
	}

	// Bidirectional containment over the synonym table. Handles pluralized or
	// compounded keywords ("vpns", "wifi router") and partial key overlap.
	for _, entry := range skillSynonyms {
		if strings.Contains(lower, entry.keyword) || strings.Contains(entry.keyword, lower) {
			for _, tag := range entry.tags {
				if level, ok := agent.Skills.Level(tag); ok {
					return level
				}
			}
		}
	}

	return 0
}
