package services

import (
	"fmt"

	"github.com/ambrosia/prodplan/pkg/domain/entities"
)

// BOMValidator provides validation for BOM graph integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM graph validation
type ValidationResult struct {
	HasCycles         bool
	CyclePaths        [][]entities.ItemCode
	DuplicateDefaults []entities.ItemCode
	Errors            []string
}

// ValidateBOMs checks a full BOM set: the component graph must be a DAG
// and each item may have at most one default BOM.
func (v *BOMValidator) ValidateBOMs(boms []*entities.BOM) *ValidationResult {
	result := &ValidationResult{
		CyclePaths:        make([][]entities.ItemCode, 0),
		DuplicateDefaults: make([]entities.ItemCode, 0),
		Errors:            make([]string, 0),
	}

	adjacencyMap := v.buildAdjacencyMap(boms)

	cycles := v.detectCycles(adjacencyMap)
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	result.DuplicateDefaults = v.detectDuplicateDefaults(boms)

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	for _, item := range result.DuplicateDefaults {
		result.Errors = append(result.Errors, fmt.Sprintf("item %s has more than one default BOM", item))
	}

	return result
}

// buildAdjacencyMap creates a map of produced item -> component items
func (v *BOMValidator) buildAdjacencyMap(boms []*entities.BOM) map[entities.ItemCode][]entities.ItemCode {
	adjacencyMap := make(map[entities.ItemCode][]entities.ItemCode)

	for _, bom := range boms {
		children := adjacencyMap[bom.Item]
		for _, line := range bom.Lines {
			found := false
			for _, child := range children {
				if child == line.Item {
					found = true
					break
				}
			}
			if !found {
				children = append(children, line.Item)
			}
		}
		adjacencyMap[bom.Item] = children
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles in the BOM component graph
func (v *BOMValidator) detectCycles(adjacencyMap map[entities.ItemCode][]entities.ItemCode) [][]entities.ItemCode {
	visited := make(map[entities.ItemCode]bool)
	recursionStack := make(map[entities.ItemCode]bool)
	cycles := make([][]entities.ItemCode, 0)

	for parent := range adjacencyMap {
		if !visited[parent] {
			path := make([]entities.ItemCode, 0)
			v.dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, path, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func (v *BOMValidator) dfsDetectCycle(
	current entities.ItemCode,
	adjacencyMap map[entities.ItemCode][]entities.ItemCode,
	visited map[entities.ItemCode]bool,
	recursionStack map[entities.ItemCode]bool,
	path []entities.ItemCode,
	cycles *[][]entities.ItemCode,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			cycleStart := -1
			for i, item := range path {
				if item == child {
					cycleStart = i
					break
				}
			}

			if cycleStart != -1 {
				cycle := make([]entities.ItemCode, 0)
				cycle = append(cycle, path[cycleStart:]...)
				cycle = append(cycle, child) // Close the cycle
				*cycles = append(*cycles, cycle)
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateDefaults finds items with more than one default BOM
func (v *BOMValidator) detectDuplicateDefaults(boms []*entities.BOM) []entities.ItemCode {
	defaults := make(map[entities.ItemCode]int)
	for _, bom := range boms {
		if bom.IsDefault {
			defaults[bom.Item]++
		}
	}

	var duplicates []entities.ItemCode
	for item, count := range defaults {
		if count > 1 {
			duplicates = append(duplicates, item)
		}
	}

	return duplicates
}
