package locator_test

import (
	"fmt"
	"log"

	"github.com/ctschema/ctschema/locator"
)

func ExampleFindPaths() {
	doc := map[string]any{
		"allowed_cohort_names": []any{"Arm_A", "Arm_B"},
		"participants": []any{
			map[string]any{"cimac_participant_id": "P1", "cohort_name": "Arm_A"},
		},
	}
	paths, err := locator.FindPaths(doc, "Arm_A")
	if err != nil {
		log.Fatal(err)
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	// Output:
	// root['allowed_cohort_names'][0]
	// root['participants'][0]['cohort_name']
}

// ExampleLocateContainer finds the sample holding a known identifier along
// with the fields of the participant that encloses it.
func ExampleLocateContainer() {
	doc := map[string]any{
		"participants": []any{
			map[string]any{
				"cimac_participant_id": "P1",
				"samples": []any{
					map[string]any{"cimac_id": "S1", "collection_event_name": "Baseline"},
				},
			},
		},
	}
	container, context, err := locator.LocateContainer(doc, "S1", 1)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(container)
	fmt.Println(context)
	// Output:
	// map[cimac_id:S1 collection_event_name:Baseline]
	// map[participants.cimac_participant_id:P1]
}
