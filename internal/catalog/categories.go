package catalog

import "sort"

type SubCategory struct {
	Name string   `yaml:"name" json:"name"`
	Tags []string `yaml:"tags" json:"tags"`
}

type Category struct {
	MainCategory  string        `yaml:"main" json:"main_category"`
	SubCategories []SubCategory `yaml:"sub" json:"sub_categories"`
}

// Vocabulary flattens every sub-category tag, keeping first appearance order.
func Vocabulary(categories []Category) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, c := range categories {
		for _, sub := range c.SubCategories {
			for _, tag := range sub.Tags {
				if _, ok := seen[tag]; ok {
					continue
				}
				seen[tag] = struct{}{}
				out = append(out, tag)
			}
		}
	}
	return out
}

func DefaultCategories() []Category {
	return []Category{
		{
			MainCategory: "special",
			SubCategories: []SubCategory{
				{Name: "Free To Play", Tags: []string{"free", "free-to-play"}},
				{Name: "Demos", Tags: []string{"demo"}},
				{Name: "Early Access", Tags: []string{"early-access"}},
				{Name: "Controller-Friendly", Tags: []string{"controller-support"}},
				{Name: "Remote Play", Tags: []string{"remote-play"}},
				{Name: "VR Titles", Tags: []string{"vr"}},
				{Name: "VR Hardware", Tags: []string{"vr-hardware"}},
				{Name: "Software", Tags: []string{"software"}},
				{Name: "Soundtracks", Tags: []string{"soundtrack"}},
			},
		},
		{
			MainCategory: "genres",
			SubCategories: []SubCategory{
				{Name: "Action", Tags: []string{"action"}},
				{Name: "Arcade & Rhythm", Tags: []string{"arcade", "rhythm"}},
				{Name: "Fighting & Martial Arts", Tags: []string{"fighting", "martial-arts"}},
				{Name: "First-Person Shooter", Tags: []string{"fps", "first-person-shooter"}},
				{Name: "Hack & Slash", Tags: []string{"hack-and-slash"}},
				{Name: "Platformer & Runner", Tags: []string{"platformer", "runner"}},
				{Name: "Third-Person Shooter", Tags: []string{"third-person-shooter"}},
				{Name: "shmup", Tags: []string{"shmup", "shoot-em-up"}},
				{Name: "Adventure", Tags: []string{"adventure"}},
				{Name: "Casual", Tags: []string{"casual"}},
				{Name: "Hidden Object", Tags: []string{"hidden-object"}},
				{Name: "Metroidvania", Tags: []string{"metroidvania"}},
				{Name: "Puzzle", Tags: []string{"puzzle"}},
				{Name: "Story-Rich", Tags: []string{"story-rich"}},
				{Name: "Visual Novel", Tags: []string{"visual-novel"}},
				{Name: "Role-Playing", Tags: []string{"rpg", "role-playing"}},
				{Name: "Action RPG", Tags: []string{"action-rpg"}},
				{Name: "Adventure RPG", Tags: []string{"adventure-rpg"}},
				{Name: "JRPG", Tags: []string{"jrpg"}},
				{Name: "Party-Based", Tags: []string{"party-based"}},
				{Name: "Rogue-Like", Tags: []string{"roguelike", "roguelite"}},
				{Name: "Strategy RPG", Tags: []string{"strategy-rpg"}},
				{Name: "Turn-Based", Tags: []string{"turn-based"}},
			},
		},
		{
			MainCategory: "themes",
			SubCategories: []SubCategory{
				{Name: "Anime", Tags: []string{"anime"}},
				{Name: "Horror", Tags: []string{"horror"}},
				{Name: "Mystery & Detective", Tags: []string{"mystery", "detective"}},
				{Name: "Open World", Tags: []string{"open-world"}},
				{Name: "Sci-Fi & Cyberpunk", Tags: []string{"sci-fi", "cyberpunk"}},
				{Name: "Space", Tags: []string{"space"}},
				{Name: "Survival", Tags: []string{"survival"}},
			},
		},
		{
			MainCategory: "player",
			SubCategories: []SubCategory{
				{Name: "Co-Operative", Tags: []string{"co-op", "cooperative"}},
				{Name: "LAN", Tags: []string{"lan"}},
				{Name: "Local & Party", Tags: []string{"local-multiplayer", "party"}},
				{Name: "MMO", Tags: []string{"mmo"}},
				{Name: "Multiplayer", Tags: []string{"multiplayer"}},
				{Name: "Online Competitive", Tags: []string{"competitive"}},
				{Name: "Singleplayer", Tags: []string{"singleplayer"}},
			},
		},
	}
}

func sortStableByReviewCount(games []Game) {
	sort.SliceStable(games, func(i, j int) bool {
		return games[i].Reviews.Count > games[j].Reviews.Count
	})
}
