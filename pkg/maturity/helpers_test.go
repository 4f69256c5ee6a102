package maturity

// testScale is a four-level scale used across the engine tests.
func testScale() *Scale {
	return MustScale([]LevelDef{
		{Level: "initial", Score: 1, Label: "Initial"},
		{Level: "defined", Score: 2, Label: "Défini"},
		{Level: "managed", Score: 3, Label: "Géré"},
		{Level: "optimized", Score: 4, Label: "Optimisé"},
	})
}

// testSpec builds a two-branch fixture: branch A and branch B with two
// leaves each, plus recommendation entries for branch A only.
func testSpec() *FrameworkSpec {
	tree := MustTree([]*ControlNode{
		{
			ID: "A", Title: "Gouvernance", Order: 1,
			Children: []*ControlNode{
				{ID: "A.1", Title: "Politique de sécurité", Order: 1, Baseline: 1},
				{ID: "A.2", Title: "Rôles et responsabilités", Order: 2, Baseline: 2},
			},
		},
		{
			ID: "B", Title: "Protection", Order: 2,
			Children: []*ControlNode{
				{ID: "B.1", Title: "Contrôle d'accès", Order: 1, Baseline: 3},
				{ID: "B.2", Title: "Chiffrement", Order: 2, Baseline: 0},
			},
		},
	})
	return &FrameworkSpec{
		Type:  FrameworkISO27001,
		Name:  "Fixture",
		Scale: testScale(),
		Tree:  tree,
		Recommendations: RecommendationTable{
			"A": {
				"Formaliser la politique de sécurité",
				"Nommer un responsable de la sécurité",
				"Mettre en place une revue annuelle",
			},
		},
	}
}

// answer records a response with the given levels on a store.
func answer(st *Store, controlID string, current, target Level) {
	cur, tgt := current, target
	if err := st.Apply(controlID, ResponseUpdate{CurrentLevel: &cur, TargetLevel: &tgt}); err != nil {
		panic(err)
	}
}
