package service

// Tree nests the flat descendants under their parents. Employees are attached
// to the root only when they were requested.
func (s Subtree) Tree(includeEmployees bool) DepartmentTree {
	childrenOf := make(map[uint][]DepartmentDTO, len(s.Descendants))
	for _, d := range s.Descendants {
		if d.ParentID == nil {
			continue
		}
		childrenOf[*d.ParentID] = append(childrenOf[*d.ParentID], d.DepartmentDTO)
	}

	root := buildTree(s.Department, childrenOf)
	if includeEmployees {
		employees := s.Employees
		if employees == nil {
			employees = []EmployeeDTO{}
		}
		root.Employees = &employees
	}
	return root
}

func buildTree(department DepartmentDTO, childrenOf map[uint][]DepartmentDTO) DepartmentTree {
	result := DepartmentTree{
		Department: department,
		Children:   []DepartmentTree{},
	}
	for _, child := range childrenOf[department.ID] {
		result.Children = append(result.Children, buildTree(child, childrenOf))
	}
	return result
}
