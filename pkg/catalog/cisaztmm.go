package catalog

import (
	"sync"

	"github.com/conformeahq/conformea/pkg/maturity"
)

var cisaZTMMOnce = sync.OnceValue(buildCISAZTMM)

// CISAZTMM returns the CISA Zero Trust Maturity Model 2.0 spec: the five
// pillars with their functions, scored on the four zero trust tiers.
func CISAZTMM() *maturity.FrameworkSpec {
	return cisaZTMMOnce()
}

func buildCISAZTMM() *maturity.FrameworkSpec {
	scale := maturity.MustScale([]maturity.LevelDef{
		{Level: "traditional", Score: 1, Label: "Traditionnel", Description: "Périmètre statique, processus manuels"},
		{Level: "initial", Score: 2, Label: "Initial", Description: "Premières automatisations et visibilité partielle"},
		{Level: "advanced", Score: 3, Label: "Avancé", Description: "Contrôles centralisés et politiques coordonnées"},
		{Level: "optimal", Score: 4, Label: "Optimal", Description: "Contrôles dynamiques fondés sur le risque en continu"},
	})

	tree := maturity.MustTree([]*maturity.ControlNode{
		{
			ID: "ZT.ID", Title: "Identité", Order: 1,
			Description: "Attributs et vérification continue des identités",
			Children: []*maturity.ControlNode{
				{ID: "ZT.ID.1", Title: "Authentification", Order: 1, Baseline: 1},
				{ID: "ZT.ID.2", Title: "Magasins d'identités", Order: 2, Baseline: 1},
				{ID: "ZT.ID.3", Title: "Évaluation des risques d'identité", Order: 3, Baseline: 0},
				{ID: "ZT.ID.4", Title: "Gestion des accès", Order: 4, Baseline: 1},
			},
		},
		{
			ID: "ZT.DEV", Title: "Terminaux", Order: 2,
			Description: "Inventaire, conformité et protection des équipements",
			Children: []*maturity.ControlNode{
				{ID: "ZT.DEV.1", Title: "Conformité et surveillance des terminaux", Order: 1, Baseline: 1},
				{ID: "ZT.DEV.2", Title: "Inventaire des équipements", Order: 2, Baseline: 2},
				{ID: "ZT.DEV.3", Title: "Protection contre les menaces sur les terminaux", Order: 3, Baseline: 1},
			},
		},
		{
			ID: "ZT.NET", Title: "Réseaux", Order: 3,
			Description: "Segmentation et chiffrement des flux",
			Children: []*maturity.ControlNode{
				{ID: "ZT.NET.1", Title: "Segmentation du réseau", Order: 1, Baseline: 1},
				{ID: "ZT.NET.2", Title: "Chiffrement du trafic", Order: 2, Baseline: 1},
				{ID: "ZT.NET.3", Title: "Résilience du réseau", Order: 3, Baseline: 2},
			},
		},
		{
			ID: "ZT.APP", Title: "Applications et charges de travail", Order: 4,
			Description: "Accès applicatif et sécurité du cycle de développement",
			Children: []*maturity.ControlNode{
				{ID: "ZT.APP.1", Title: "Accès aux applications", Order: 1, Baseline: 1},
				{ID: "ZT.APP.2", Title: "Protection contre les menaces applicatives", Order: 2, Baseline: 0},
				{ID: "ZT.APP.3", Title: "Développement et déploiement sécurisés", Order: 3, Baseline: 1},
			},
		},
		{
			ID: "ZT.DATA", Title: "Données", Order: 5,
			Description: "Inventaire, catégorisation et chiffrement des données",
			Children: []*maturity.ControlNode{
				{ID: "ZT.DATA.1", Title: "Inventaire et catégorisation des données", Order: 1, Baseline: 0},
				{ID: "ZT.DATA.2", Title: "Chiffrement des données", Order: 2, Baseline: 1},
				{ID: "ZT.DATA.3", Title: "Gouvernance de l'accès aux données", Order: 3, Baseline: 1},
			},
		},
	})

	recommendations := maturity.RecommendationTable{
		"ZT.ID": {
			"Déployer l'authentification multifacteur résistante au phishing",
			"Centraliser les magasins d'identités et automatiser le provisionnement",
			"Évaluer dynamiquement le risque à chaque demande d'accès",
		},
		"ZT.DEV": {
			"Maintenir un inventaire temps réel des terminaux connectés",
			"Conditionner l'accès aux ressources à la conformité du terminal",
		},
		"ZT.NET": {
			"Micro-segmenter le réseau autour des applications critiques",
			"Chiffrer l'ensemble des flux internes et externes",
		},
		"ZT.APP": {
			"Protéger les applications exposées par des contrôles adaptatifs",
			"Intégrer les tests de sécurité dans les chaînes de déploiement",
		},
		"ZT.DATA": {
			"Cartographier et étiqueter les données selon leur sensibilité",
			"Chiffrer les données sensibles et gérer les clés de manière centralisée",
			"Tracer et contrôler les accès aux jeux de données critiques",
		},
	}

	return &maturity.FrameworkSpec{
		Type:            maturity.FrameworkCISAZTMM,
		Name:            "CISA Zero Trust Maturity Model",
		Version:         "2.0",
		Scale:           scale,
		Tree:            tree,
		Recommendations: recommendations,
	}
}
