package catalog

// Default returns the built-in catalog used when nothing else is
// configured or reachable.
func Default() *Catalog {
	return New(
		Table{Name: "User", Columns: []string{"userID", "Fname", "Lname", "Email", "CreatedAt"}},
		Table{Name: "Project", Columns: []string{"ProjectID", "name", "status", "created_at", "userID"}},
		Table{Name: "Agent", Columns: []string{"AgentID", "name", "version", "model", "goal", "ProjectID"}},
		Table{Name: "Run", Columns: []string{"RunID", "Status", "time", "notes", "Parent_RunID", "AgentID"}},
		Table{Name: "RunStep", Columns: []string{"RunID", "Step_No", "Name", "Status", "Step_Type", "Time"}},
		Table{Name: "RunMetric", Columns: []string{"ID", "RunID", "Name", "Value_Text", "DataType", "Value_Numeric"}},
		Table{Name: "Artifact", Columns: []string{"ArtifactID", "Type", "URI", "Checksum", "Created_at", "RunID"}},
		Table{Name: "Dataset", Columns: []string{"DatasetID", "name", "version", "URL", "type", "ProjectID"}},
		Table{Name: "Environment", Columns: []string{"EnvironmentID", "Name", "Framework", "Python_Version", "GPU_Cores", "CPU_Cores", "RunID"}},
	)
}
