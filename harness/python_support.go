// BSD 2-Clause License
//
// Copyright (c) 2020, Andrea Giacomo Baldan
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
//
// * Redistributions of source code must retain the above copyright notice, this
//   list of conditions and the following disclaimer.
//
// * Redistributions in binary form must reproduce the above copyright notice,
//   this list of conditions and the following disclaimer in the documentation
//   and/or other materials provided with the distribution.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE
// FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL
// DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER
// CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY,
// OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package harness

// Python support module templates. The static part carries the shared
// serialization and error helpers; the structure blocks are appended
// only when a submission requires them.

const pySupportBase = `import json


def to_json(value):
    return json.dumps(value, separators=(",", ":"))


def serialize_scalar(value):
    if value is None:
        return "null"
    if isinstance(value, bool):
        return "true" if value else "false"
    return str(value)


def error_info(e):
    msg = str(e).replace("\n", " ").replace("\r", " ")
    return "%s: %s" % (type(e).__name__, msg)
`

const pyListNodeBlock = `

class ListNode:
    def __init__(self, val=0, next=None):
        self.val = val
        self.next = next


def build_list_node(values):
    head = None
    tail = None
    for v in values or []:
        node = ListNode(v)
        if head is None:
            head = node
        else:
            tail.next = node
        tail = node
    return head


def convert_list_node(head):
    out = []
    while head is not None:
        out.append(head.val)
        head = head.next
    return to_json(out)


def build_list_node_seq(values):
    if values is None:
        return None
    return [build_list_node(v) for v in values]


def convert_list_node_seq(nodes):
    if nodes is None:
        return "null"
    return "[" + ",".join(convert_list_node(n) for n in nodes) + "]"
`

const pyTreeNodeBlock = `

class TreeNode:
    def __init__(self, val=0, left=None, right=None):
        self.val = val
        self.left = left
        self.right = right


def build_tree_node(values):
    if not values or values[0] is None:
        return None
    root = TreeNode(values[0])
    queue = [root]
    qi = 0
    i = 1
    while qi < len(queue) and i < len(values):
        node = queue[qi]
        qi += 1
        if i < len(values):
            v = values[i]
            i += 1
            if v is not None:
                node.left = TreeNode(v)
                queue.append(node.left)
        if i < len(values):
            v = values[i]
            i += 1
            if v is not None:
                node.right = TreeNode(v)
                queue.append(node.right)
    return root


def convert_tree_node(root):
    if root is None:
        return "[]"
    out = []
    queue = [root]
    qi = 0
    while qi < len(queue):
        node = queue[qi]
        qi += 1
        if node is None:
            out.append(None)
            continue
        out.append(node.val)
        queue.append(node.left)
        queue.append(node.right)
    while out and out[-1] is None:
        out.pop()
    return to_json(out)


def build_tree_node_seq(values):
    if values is None:
        return None
    return [build_tree_node(v) for v in values]


def convert_tree_node_seq(nodes):
    if nodes is None:
        return "null"
    return "[" + ",".join(convert_tree_node(n) for n in nodes) + "]"
`

const pyGraphNodeBlock = `

class Node:
    def __init__(self, val=0, neighbors=None):
        self.val = val
        self.neighbors = neighbors if neighbors is not None else []


def build_node(adjacency):
    if not adjacency:
        return None
    nodes = [Node(i + 1) for i in range(len(adjacency))]
    for i, neighbors in enumerate(adjacency):
        nodes[i].neighbors = [nodes[label - 1] for label in neighbors]
    return nodes[0]


def convert_node(node):
    if node is None:
        return "[]"
    adj = {}
    seen = {node.val}
    queue = [node]
    qi = 0
    max_label = node.val
    while qi < len(queue):
        cur = queue[qi]
        qi += 1
        max_label = max(max_label, cur.val)
        labels = []
        for nb in cur.neighbors:
            labels.append(nb.val)
            max_label = max(max_label, nb.val)
            if nb.val not in seen:
                seen.add(nb.val)
                queue.append(nb)
        adj[cur.val] = labels
    return to_json([adj.get(i, []) for i in range(1, max_label + 1)])
`

// pyDesignBlock drives a DESIGN_CLASS case: instantiate on the first
// argument list, dispatch the rest by name, substituting $PREV with the
// re-parsed previous return.
const pyDesignBlockHead = `

def serialize_value(value):
    if value is None:
        return "null"
    if isinstance(value, bool):
        return "true" if value else "false"
    if isinstance(value, str):
        return to_json(value)
`

const pyDesignBlockTail = `    try:
        return to_json(value)
    except (TypeError, ValueError):
        return str(value)


def run_design(cls, ops, arg_lists):
    instance = cls(*arg_lists[0])
    results = ["null"]
    prev = None
    for name, args in zip(ops[1:], arg_lists[1:]):
        args = [json.loads(prev or "null") if a == "$PREV" else a for a in args]
        ret = getattr(instance, name)(*args)
        encoded = serialize_value(ret)
        results.append(encoded)
        prev = encoded
    return "[" + ",".join(results) + "]"
`
