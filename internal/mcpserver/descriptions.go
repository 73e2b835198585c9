package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeScopeTree() string {
	return `Builds the lexical scope tree of C and C++ sources: namespaces, classes, structs, unions, function declarations and definitions, and data members.

USE WHEN:
- Getting an outline of a header or translation unit before editing it
- Finding where a class or namespace is re-opened across files
- Checking which scope an out-of-line definition like A::B::f() lands in

INTERPRETING RESULTS:
- Each scope has an id, its parent id (-1 for the root) and its depth
- Re-opened namespaces are merged into one scope per file
- kind is one of file, workspace, namespace, composite_type, function_decl, function_def, member
- qualified is the scope path joined with ::, binding is the cross-file lookup key
- friend marks declarations introduced by a friend declaration
- With workspace=true all files share one tree under a workspace root

METRICS RETURNED:
- Per-file: scopes (flattened depth-first), parse_errors
- Workspace mode: one scope list for the whole tree plus undefined declarations`
}

func describeScopeMetrics() string {
	return `Measures per-function complexity and per-type structure of C and C++ code, using the scope tree to attribute each function to its namespace and class.

USE WHEN:
- Finding the hardest functions to test or review in a C++ codebase
- Checking functions against complexity limits before a merge
- Spotting classes with too many data members or friends

INTERPRETING RESULTS:
- Cyclomatic complexity > 10: many code paths, consider splitting
- Cognitive complexity > 15: hard to follow, flatten the control flow
- Nesting > 4: deep nesting, prefer early returns
- Parameters > 5: long parameter list, consider a parameter object
- Violations carry severity warning, or error when the value exceeds twice the limit
- P90 values show the 90th percentile across all functions

METRICS RETURNED:
- Summary: mean, P50, P90, P95 and max for cyclomatic, cognitive, nesting, lsloc, parameters
- Functions: top N by cyclomatic complexity with file and line
- Violations: rule, value, threshold, scope
- Undefined: functions declared but never defined in the analyzed files`
}

func describeScopeLinkage() string {
	return `Lists functions that are declared but have no definition anywhere in the analyzed C and C++ files.

USE WHEN:
- Finding methods declared in a header that were never implemented
- Checking that a refactoring did not leave stale declarations behind
- Auditing a library's public headers against its sources

INTERPRETING RESULTS:
- Declarations are matched to definitions by qualified name and parameter types
- const qualification is ignored when matching
- Pure virtual and external library functions legitimately appear here
- Analyze headers and sources together, a header alone reports everything

METRICS RETURNED:
- undefined: qualified signatures with no definition
- declared and defined: counts of distinct signatures`
}
