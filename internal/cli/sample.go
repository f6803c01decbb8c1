package cli

import "clafootix/internal/domain"

// sampleCatalog provides a small offline catalog for running without Postgres.
func sampleCatalog() ([]domain.RoundDefinition, []domain.Entity) {
	juve := club("c-juve", "Juventus", "serie-a", "IT")
	realMadrid := club("c-real", "Real Madrid", "liga", "ES")
	bordeaux := club("c-bordeaux", "Bordeaux", "ligue-1", "FR")
	monaco := club("c-monaco", "Monaco", "ligue-1", "FR")
	arsenal := club("c-arsenal", "Arsenal", "premier-league", "GB")
	psg := club("c-psg", "Paris SG", "ligue-1", "FR")
	chelsea := club("c-chelsea", "Chelsea", "premier-league", "GB")
	barca := club("c-barca", "Barcelona", "liga", "ES")
	milan := club("c-milan", "AC Milan", "serie-a", "IT")
	inter := club("c-inter", "Inter", "serie-a", "IT")

	rounds := []domain.RoundDefinition{
		{
			ID:     "ci-bleus-98",
			Title:  "Les Bleus de 98",
			Season: "1998",
			Active: true,
			Items: []domain.RoundItem{
				{ID: "p-zidane", Name: "Zinedine Zidane", Tags: []string{"milieu"}, CorrectEntities: []domain.Entity{juve, realMadrid, bordeaux}},
				{ID: "p-henry", Name: "Thierry Henry", Tags: []string{"attaquant"}, CorrectEntities: []domain.Entity{monaco, juve, arsenal, barca}},
				{ID: "p-thuram", Name: "Lilian Thuram", Tags: []string{"défenseur"}, CorrectEntities: []domain.Entity{monaco, juve, barca}},
			},
		},
		{
			ID:     "ci-globetrotters",
			Title:  "Globe-trotters",
			Active: true,
			Items: []domain.RoundItem{
				{ID: "p-anelka", Name: "Nicolas Anelka", CorrectEntities: []domain.Entity{psg, arsenal, realMadrid, chelsea}},
				{ID: "p-ibra", Name: "Zlatan Ibrahimović", CorrectEntities: []domain.Entity{juve, inter, barca, milan, psg}},
			},
		},
	}
	clubs := []domain.Entity{
		club("c-lyon", "Lyon", "ligue-1", "FR"),
		club("c-marseille", "Marseille", "ligue-1", "FR"),
		club("c-lens", "Lens", "ligue-1", "FR"),
		club("c-roma", "AS Roma", "serie-a", "IT"),
		club("c-napoli", "Napoli", "serie-a", "IT"),
		club("c-atletico", "Atlético", "liga", "ES"),
		club("c-valencia", "Valencia", "liga", "ES"),
		club("c-liverpool", "Liverpool", "premier-league", "GB"),
		club("c-united", "Manchester United", "premier-league", "GB"),
	}
	return rounds, clubs
}

func club(id, name, league, country string) domain.Entity {
	return domain.Entity{ID: id, Name: name, League: league, Country: country}
}
