package catalog

import (
	"sync"

	"github.com/conformeahq/conformea/pkg/maturity"
)

var nistCSFOnce = sync.OnceValue(buildNISTCSF)

// NISTCSF returns the NIST Cybersecurity Framework 2.0 spec: the six
// functions with their assessable categories, scored on the CSF
// implementation tiers.
func NISTCSF() *maturity.FrameworkSpec {
	return nistCSFOnce()
}

func buildNISTCSF() *maturity.FrameworkSpec {
	scale := maturity.MustScale([]maturity.LevelDef{
		{Level: "partial", Score: 1, Label: "Partiel", Description: "Gestion des risques ad hoc et réactive"},
		{Level: "risk_informed", Score: 2, Label: "Informé par le risque", Description: "Pratiques approuvées mais non généralisées"},
		{Level: "repeatable", Score: 3, Label: "Répétable", Description: "Pratiques formalisées et régulièrement mises à jour"},
		{Level: "adaptive", Score: 4, Label: "Adaptatif", Description: "Amélioration continue fondée sur les leçons apprises"},
	})

	tree := maturity.MustTree([]*maturity.ControlNode{
		{
			ID: "GV", Title: "Gouverner", Order: 1,
			Description: "La stratégie, les attentes et la politique de gestion du risque cyber sont établies et surveillées",
			Children: []*maturity.ControlNode{
				{ID: "GV.OC", Title: "Contexte organisationnel", Order: 1, Baseline: 1},
				{ID: "GV.RM", Title: "Stratégie de gestion des risques", Order: 2, Baseline: 1},
				{ID: "GV.RR", Title: "Rôles, responsabilités et autorités", Order: 3, Baseline: 2},
				{ID: "GV.PO", Title: "Politique", Order: 4, Baseline: 1},
				{ID: "GV.OV", Title: "Supervision", Order: 5, Baseline: 0},
				{ID: "GV.SC", Title: "Gestion des risques de la chaîne d'approvisionnement", Order: 6, Baseline: 0},
			},
		},
		{
			ID: "ID", Title: "Identifier", Order: 2,
			Description: "Les risques cyber actuels de l'organisation sont compris",
			Children: []*maturity.ControlNode{
				{ID: "ID.AM", Title: "Gestion des actifs", Order: 1, Baseline: 2},
				{ID: "ID.RA", Title: "Évaluation des risques", Order: 2, Baseline: 1},
				{ID: "ID.IM", Title: "Amélioration", Order: 3, Baseline: 1},
			},
		},
		{
			ID: "PR", Title: "Protéger", Order: 3,
			Description: "Des mesures de protection sont mises en œuvre pour maîtriser les risques",
			Children: []*maturity.ControlNode{
				{ID: "PR.AA", Title: "Gestion des identités, authentification et contrôle d'accès", Order: 1, Baseline: 2},
				{ID: "PR.AT", Title: "Sensibilisation et formation", Order: 2, Baseline: 1},
				{ID: "PR.DS", Title: "Sécurité des données", Order: 3, Baseline: 2},
				{ID: "PR.PS", Title: "Sécurité des plateformes", Order: 4, Baseline: 2},
				{ID: "PR.IR", Title: "Résilience de l'infrastructure technologique", Order: 5, Baseline: 1},
			},
		},
		{
			ID: "DE", Title: "Détecter", Order: 4,
			Description: "Les attaques et compromissions possibles sont trouvées et analysées",
			Children: []*maturity.ControlNode{
				{ID: "DE.CM", Title: "Surveillance continue", Order: 1, Baseline: 1},
				{ID: "DE.AE", Title: "Analyse des événements indésirables", Order: 2, Baseline: 0},
			},
		},
		{
			ID: "RS", Title: "Répondre", Order: 5,
			Description: "Des actions sont menées face aux incidents détectés",
			Children: []*maturity.ControlNode{
				{ID: "RS.MA", Title: "Gestion des incidents", Order: 1, Baseline: 1},
				{ID: "RS.AN", Title: "Analyse des incidents", Order: 2, Baseline: 1},
				{ID: "RS.CO", Title: "Communication et rapport", Order: 3, Baseline: 2},
				{ID: "RS.MI", Title: "Atténuation des incidents", Order: 4, Baseline: 1},
			},
		},
		{
			ID: "RC", Title: "Rétablir", Order: 6,
			Description: "Les actifs et les opérations touchés par un incident sont restaurés",
			Children: []*maturity.ControlNode{
				{ID: "RC.RP", Title: "Exécution du plan de rétablissement", Order: 1, Baseline: 1},
				{ID: "RC.CO", Title: "Communication du rétablissement", Order: 2, Baseline: 2},
			},
		},
	})

	recommendations := maturity.RecommendationTable{
		"GV": {
			"Faire valider la stratégie de gestion des risques cyber par la direction générale",
			"Établir un comité de pilotage sécurité avec des indicateurs suivis",
			"Intégrer la chaîne d'approvisionnement dans l'analyse de risques",
		},
		"ID": {
			"Constituer et maintenir un inventaire exhaustif des actifs critiques",
			"Conduire une analyse de risques formelle sur les processus métier",
			"Capitaliser les enseignements des incidents dans un plan d'amélioration",
		},
		"PR": {
			"Généraliser l'authentification multifacteur et la revue des accès",
			"Déployer le chiffrement des données sensibles au repos et en transit",
			"Durcir les configurations selon des référentiels reconnus",
		},
		"DE": {
			"Mettre en place une surveillance centralisée des journaux",
			"Définir des scénarios de détection alignés sur les menaces",
			"Tester régulièrement la chaîne de détection et d'alerte",
		},
		"RS": {
			"Formaliser et tester le processus de réponse aux incidents",
			"Définir les canaux de communication de crise internes et externes",
		},
		"RC": {
			"Élaborer des plans de rétablissement priorisés par criticité métier",
			"Organiser des exercices de restauration périodiques",
		},
	}

	return &maturity.FrameworkSpec{
		Type:            maturity.FrameworkNISTCSF,
		Name:            "NIST Cybersecurity Framework 2.0",
		Version:         "2.0",
		Scale:           scale,
		Tree:            tree,
		Recommendations: recommendations,
	}
}
