package modes

// Set bundles the two registries consulted by the classifier.
type Set struct {
	Tracks *Registry
	Topics *Registry
}

func DefaultTracks() *Registry {
	return NewRegistry(
		Entry{Trigger: "beginner", Directive: "Use simple language, explain slowly, avoid jargon, use analogies, and give small exercises."},
		Entry{Trigger: "intermediate", Directive: "Use moderate technical detail, real-world examples, and scenario-based explanations."},
		Entry{Trigger: "advanced", Directive: "Use deep technical detail, SOC workflows, cloud architecture, logs, and threat analysis."},
	)
}

func DefaultTopics() *Registry {
	return NewRegistry(
		Entry{Trigger: "cybersecurity fundamentals", Directive: "Teach CIA triad, threats, vulnerabilities, malware, phishing, social engineering."},
		Entry{Trigger: "network security", Directive: "Teach firewalls, VPNs, IDS/IPS, ports, OSI model, segmentation, zero trust."},
		Entry{Trigger: "cloud security", Directive: "Teach Azure RBAC, NSGs, firewalls, key vault, defender for cloud, shared responsibility."},
		Entry{Trigger: "identity and access management", Directive: "Teach MFA, SSO, OAuth, conditional access, least privilege."},
		Entry{Trigger: "soc and threat detection", Directive: "Teach SIEM, SOAR, logs, MITRE ATT&CK, threat hunting, incident response."},
		Entry{Trigger: "digital hygiene", Directive: "Teach passwords, safe browsing, scams, privacy, device security."},
	)
}

func Default() Set {
	return Set{Tracks: DefaultTracks(), Topics: DefaultTopics()}
}
