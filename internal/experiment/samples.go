package experiment

import "github.com/san-kum/springnet/internal/graph"

func edge(from, to string, w float64) graph.Edge {
	return graph.Edge{From: from, To: to, Weight: w}
}

func mustGraph(vertices []string, edges []graph.Edge, weights map[string]float64) *graph.Graph {
	g, err := graph.New(vertices, edges, weights)
	if err != nil {
		panic(err)
	}
	return g
}

func pentagonGraph() *graph.Graph {
	return mustGraph(
		[]string{"1", "2", "3", "4", "5"},
		[]graph.Edge{edge("1", "2", 1), edge("2", "3", 1), edge("3", "4", 1), edge("3", "5", 1), edge("1", "4", 1)},
		nil,
	)
}

// Subreddit overlap graphs: edge weights are shared-commenter ratios, vertex
// weights are active commenter counts.

func musicGraph() *graph.Graph {
	return mustGraph(
		[]string{"dubstep", "metal", "jazz", "classical", "trap", "vaporwave", "kpop"},
		[]graph.Edge{
			edge("dubstep", "trap", 0.05333794385252102),
			edge("dubstep", "vaporwave", 0.008080509726148783),
			edge("metal", "jazz", 0.015124003293220702),
			edge("metal", "classical", 0.011521354696961578),
			edge("jazz", "classical", 0.036549855857683),
			edge("jazz", "vaporwave", 0.012715953307392997),
			edge("classical", "vaporwave", 0.00788144449605202),
			edge("classical", "trap", 0.0057576363688316146),
			edge("trap", "vaporwave", 0.013880736710186081),
			edge("trap", "kpop", 0.00494641384995878),
			edge("vaporwave", "kpop", 0.005670890091804969),
		},
		map[string]float64{
			"dubstep": 16304, "metal": 56418, "jazz": 33590, "classical": 37962,
			"trap": 32435, "vaporwave": 31477, "kpop": 69961,
		},
	)
}

func candidatesGraph() *graph.Graph {
	return mustGraph(
		[]string{"JoeBiden", "ElizabethW", "SandersFor", "BaemyKloba", "YangForPre", "the_donald"},
		[]graph.Edge{
			edge("JoeBiden", "ElizabethW", 0.05190205509400962),
			edge("JoeBiden", "YangForPre", 0.017636510208446442),
			edge("ElizabethW", "SandersFor", 0.036517381320316),
			edge("ElizabethW", "YangForPre", 0.031817025923322015),
			edge("SandersFor", "YangForPre", 0.054088774181547616),
			edge("SandersFor", "the_donald", 0.03731128913855287),
			edge("BaemyKloba", "YangForPre", 0.004462269434357668),
			edge("BaemyKloba", "the_donald", 0.0013517995517452787),
			edge("YangForPre", "the_donald", 0.019403920674720767),
		},
		map[string]float64{
			"JoeBiden": 8467, "ElizabethW": 15590, "SandersFor": 127949,
			"BaemyKloba": 2212, "YangForPre": 53388, "the_donald": 197051,
		},
	)
}

func politicsGraph() *graph.Graph {
	return mustGraph(
		[]string{"worldpoli", "politics", "republica", "democrats", "obama", "JoeBiden", "Elizabeth", "SandersFo", "BaemyKlob", "YangForPr", "the_donal"},
		[]graph.Edge{
			edge("worldpoli", "democrats", 0.029163533049218683),
			edge("worldpoli", "politics", 0.023612856269869063),
			edge("politics", "the_donal", 0.03617898194676051),
			edge("politics", "SandersFo", 0.015797700510611693),
			edge("republica", "democrats", 0.023824353783867953),
			edge("republica", "the_donal", 0.0109025347332697),
			edge("democrats", "SandersFo", 0.021058315334773217),
			edge("democrats", "the_donal", 0.005352199323285143),
			edge("obama", "Elizabeth", 0.007621951219512195),
			edge("obama", "BaemyKlob", 0.006198347107438017),
			edge("JoeBiden", "BaemyKlob", 0.008),
			edge("JoeBiden", "Elizabeth", 0.002352941176470588),
			edge("Elizabeth", "BaemyKlob", 0.008103727714748784),
			edge("Elizabeth", "YangForPr", 0.008077544426494346),
			edge("SandersFo", "the_donal", 0.0054911167260211285),
			edge("SandersFo", "YangForPr", 0.0010518934081346423),
			edge("BaemyKlob", "YangForPr", 0.006711409395973154),
			edge("BaemyKlob", "the_donal", 0.000331389183457052),
			edge("YangForPr", "the_donal", 0.0002429865252926883),
		},
		map[string]float64{
			"worldpoli": 8345, "politics": 140735, "republica": 2604, "democrats": 3971,
			"obama": 263, "JoeBiden": 28, "Elizabeth": 398, "SandersFo": 5484,
			"BaemyKlob": 224, "YangForPr": 226, "the_donal": 45055,
		},
	)
}
