package catalog

import (
	"sync"

	"github.com/conformeahq/conformea/pkg/maturity"
)

var iso27001Once = sync.OnceValue(buildISO27001)

// ISO27001 returns the ISO/IEC 27001:2022 framework spec: the four Annex A
// control themes with their assessable controls.
func ISO27001() *maturity.FrameworkSpec {
	return iso27001Once()
}

func buildISO27001() *maturity.FrameworkSpec {
	scale := maturity.MustScale([]maturity.LevelDef{
		{Level: "initial", Score: 1, Label: "Initial", Description: "Pratiques informelles, non documentées"},
		{Level: "defini", Score: 2, Label: "Défini", Description: "Pratiques documentées et communiquées"},
		{Level: "gere", Score: 3, Label: "Géré", Description: "Pratiques pilotées et mesurées"},
		{Level: "optimise", Score: 4, Label: "Optimisé", Description: "Amélioration continue démontrée"},
	})

	tree := maturity.MustTree([]*maturity.ControlNode{
		{
			ID: "A.5", Title: "Mesures organisationnelles", Order: 1,
			Description: "Gouvernance, politiques et organisation de la sécurité de l'information",
			Children: []*maturity.ControlNode{
				{ID: "A.5.1", Title: "Politiques de sécurité de l'information", Order: 1, Baseline: 1},
				{ID: "A.5.2", Title: "Fonctions et responsabilités liées à la sécurité", Order: 2, Baseline: 1},
				{ID: "A.5.7", Title: "Renseignement sur les menaces", Order: 3, Baseline: 0},
				{ID: "A.5.9", Title: "Inventaire des informations et autres actifs", Order: 4, Baseline: 2},
				{ID: "A.5.12", Title: "Classification des informations", Order: 5, Baseline: 1},
				{ID: "A.5.15", Title: "Contrôle d'accès", Order: 6, Baseline: 2},
				{ID: "A.5.19", Title: "Sécurité de l'information dans les relations fournisseurs", Order: 7, Baseline: 0},
				{ID: "A.5.24", Title: "Planification et préparation de la gestion des incidents", Order: 8, Baseline: 1},
				{ID: "A.5.29", Title: "Sécurité de l'information en cas de perturbation", Order: 9, Baseline: 0},
				{ID: "A.5.36", Title: "Conformité aux politiques et normes de sécurité", Order: 10, Baseline: 2},
			},
		},
		{
			ID: "A.6", Title: "Mesures liées aux personnes", Order: 2,
			Description: "Sécurité des ressources humaines et sensibilisation",
			Children: []*maturity.ControlNode{
				{ID: "A.6.1", Title: "Sélection des candidats", Order: 1, Baseline: 2},
				{ID: "A.6.2", Title: "Conditions générales d'embauche", Order: 2, Baseline: 3},
				{ID: "A.6.3", Title: "Sensibilisation, enseignement et formation", Order: 3, Baseline: 1},
				{ID: "A.6.5", Title: "Responsabilités après la fin ou le changement d'emploi", Order: 4, Baseline: 1},
				{ID: "A.6.7", Title: "Travail à distance", Order: 5, Baseline: 2},
				{ID: "A.6.8", Title: "Déclaration des événements de sécurité de l'information", Order: 6, Baseline: 1},
			},
		},
		{
			ID: "A.7", Title: "Mesures physiques", Order: 3,
			Description: "Protection physique des locaux et des équipements",
			Children: []*maturity.ControlNode{
				{ID: "A.7.1", Title: "Périmètres de sécurité physique", Order: 1, Baseline: 2},
				{ID: "A.7.2", Title: "Entrées physiques", Order: 2, Baseline: 2},
				{ID: "A.7.4", Title: "Surveillance de la sécurité physique", Order: 3, Baseline: 1},
				{ID: "A.7.9", Title: "Sécurité des actifs hors des locaux", Order: 4, Baseline: 1},
				{ID: "A.7.10", Title: "Supports de stockage", Order: 5, Baseline: 1},
				{ID: "A.7.14", Title: "Mise au rebut ou recyclage sécurisé du matériel", Order: 6, Baseline: 2},
			},
		},
		{
			ID: "A.8", Title: "Mesures technologiques", Order: 4,
			Description: "Sécurité des systèmes, des réseaux et des développements",
			Children: []*maturity.ControlNode{
				{ID: "A.8.1", Title: "Terminaux finaux des utilisateurs", Order: 1, Baseline: 2},
				{ID: "A.8.2", Title: "Droits d'accès privilégiés", Order: 2, Baseline: 1},
				{ID: "A.8.5", Title: "Authentification sécurisée", Order: 3, Baseline: 2},
				{ID: "A.8.7", Title: "Protection contre les programmes malveillants", Order: 4, Baseline: 3},
				{ID: "A.8.8", Title: "Gestion des vulnérabilités techniques", Order: 5, Baseline: 1},
				{ID: "A.8.12", Title: "Prévention de la fuite de données", Order: 6, Baseline: 0},
				{ID: "A.8.13", Title: "Sauvegarde des informations", Order: 7, Baseline: 2},
				{ID: "A.8.15", Title: "Journalisation", Order: 8, Baseline: 1},
				{ID: "A.8.16", Title: "Activités de surveillance", Order: 9, Baseline: 1},
				{ID: "A.8.24", Title: "Utilisation de la cryptographie", Order: 10, Baseline: 2},
				{ID: "A.8.25", Title: "Cycle de vie de développement sécurisé", Order: 11, Baseline: 1},
				{ID: "A.8.28", Title: "Codage sécurisé", Order: 12, Baseline: 1},
			},
		},
	})

	recommendations := maturity.RecommendationTable{
		"A.5": {
			"Formaliser et faire approuver la politique de sécurité de l'information par la direction",
			"Définir une matrice RACI des responsabilités sécurité",
			"Mettre en place une revue annuelle des politiques et de leur application",
			"Intégrer les exigences de sécurité dans les contrats fournisseurs",
		},
		"A.6": {
			"Déployer un programme de sensibilisation annuel pour l'ensemble du personnel",
			"Intégrer des clauses de confidentialité dans les contrats de travail",
			"Formaliser le processus d'arrivée, de mobilité et de départ des collaborateurs",
		},
		"A.7": {
			"Cartographier les zones sensibles et contrôler les accès physiques associés",
			"Mettre en place une traçabilité des accès visiteurs",
			"Formaliser la procédure de mise au rebut des supports",
		},
		"A.8": {
			"Déployer l'authentification multifacteur sur les accès à privilèges",
			"Industrialiser la gestion des vulnérabilités avec des scans réguliers",
			"Centraliser la journalisation et définir des cas d'usage de détection",
			"Intégrer la sécurité dans le cycle de développement (revues de code, tests)",
		},
	}

	return &maturity.FrameworkSpec{
		Type:            maturity.FrameworkISO27001,
		Name:            "ISO/IEC 27001:2022",
		Version:         "2022",
		Scale:           scale,
		Tree:            tree,
		Recommendations: recommendations,
	}
}
