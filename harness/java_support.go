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

// Java support sources emitted alongside the generated Main: the custom
// data structure classes and the JsonSupport helper bodies, keyed by
// helper name so only what a submission needs is written.

const javaListNodeClass = `public class ListNode {
    int val;
    ListNode next;

    ListNode() {}

    ListNode(int val) { this.val = val; }

    ListNode(int val, ListNode next) {
        this.val = val;
        this.next = next;
    }
}
`

const javaTreeNodeClass = `public class TreeNode {
    int val;
    TreeNode left;
    TreeNode right;

    TreeNode() {}

    TreeNode(int val) { this.val = val; }

    TreeNode(int val, TreeNode left, TreeNode right) {
        this.val = val;
        this.left = left;
        this.right = right;
    }
}
`

const javaGraphNodeClass = `import java.util.*;

public class Node {
    public int val;
    public List<Node> neighbors;

    public Node() {
        val = 0;
        neighbors = new ArrayList<Node>();
    }

    public Node(int _val) {
        val = _val;
        neighbors = new ArrayList<Node>();
    }

    public Node(int _val, ArrayList<Node> _neighbors) {
        val = _val;
        neighbors = _neighbors;
    }
}
`

var javaDSClasses = map[string]string{
	"ListNode": javaListNodeClass,
	"TreeNode": javaTreeNodeClass,
	"Node":     javaGraphNodeClass,
}

// javaHelperOrder fixes the emission order inside JsonSupport so the
// generated file is deterministic for a given submission.
var javaHelperOrder = []string{
	"buildListNode",
	"convertListNodeToJson",
	"convertListNodeListToJson",
	"convertListNodeArrayToJson",
	"toListNodeArray",
	"toListNodeList",
	"buildTreeNode",
	"convertTreeNodeToJson",
	"convertTreeNodeListToJson",
	"convertTreeNodeArrayToJson",
	"toTreeNodeArray",
	"toTreeNodeList",
	"buildNode",
	"convertNodeToJson",
}

var javaHelperDeps = map[string][]string{
	"convertListNodeListToJson":  {"convertListNodeToJson"},
	"convertListNodeArrayToJson": {"convertListNodeToJson"},
	"toListNodeArray":            {"buildListNode"},
	"toListNodeList":             {"buildListNode"},
	"convertTreeNodeListToJson":  {"convertTreeNodeToJson"},
	"convertTreeNodeArrayToJson": {"convertTreeNodeToJson"},
	"toTreeNodeArray":            {"buildTreeNode"},
	"toTreeNodeList":             {"buildTreeNode"},
}

var javaHelperBodies = map[string]string{
	"buildListNode": `    static ListNode buildListNode(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray a = e.getAsJsonArray();
        ListNode dummy = new ListNode(0);
        ListNode tail = dummy;
        for (int i = 0; i < a.size(); i++) {
            tail.next = new ListNode(a.get(i).getAsInt());
            tail = tail.next;
        }
        return dummy.next;
    }`,

	"convertListNodeToJson": `    static String convertListNodeToJson(ListNode head) {
        if (head == null) return "[]";
        StringBuilder b = new StringBuilder("[");
        for (ListNode cur = head; cur != null; cur = cur.next) {
            if (b.length() > 1) b.append(",");
            b.append(cur.val);
        }
        return b.append("]").toString();
    }`,

	"convertListNodeListToJson": `    static String convertListNodeListToJson(List<ListNode> nodes) {
        if (nodes == null) return "null";
        StringBuilder b = new StringBuilder("[");
        for (int i = 0; i < nodes.size(); i++) {
            if (i > 0) b.append(",");
            b.append(convertListNodeToJson(nodes.get(i)));
        }
        return b.append("]").toString();
    }`,

	"convertListNodeArrayToJson": `    static String convertListNodeArrayToJson(ListNode[] nodes) {
        if (nodes == null) return "null";
        StringBuilder b = new StringBuilder("[");
        for (int i = 0; i < nodes.length; i++) {
            if (i > 0) b.append(",");
            b.append(convertListNodeToJson(nodes[i]));
        }
        return b.append("]").toString();
    }`,

	"toListNodeArray": `    static ListNode[] toListNodeArray(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray a = e.getAsJsonArray();
        ListNode[] out = new ListNode[a.size()];
        for (int i = 0; i < a.size(); i++) out[i] = buildListNode(a.get(i));
        return out;
    }`,

	"toListNodeList": `    static List<ListNode> toListNodeList(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray a = e.getAsJsonArray();
        List<ListNode> out = new ArrayList<>();
        for (int i = 0; i < a.size(); i++) out.add(buildListNode(a.get(i)));
        return out;
    }`,

	"buildTreeNode": `    static TreeNode buildTreeNode(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray a = e.getAsJsonArray();
        if (a.size() == 0 || a.get(0).isJsonNull()) return null;
        TreeNode root = new TreeNode(a.get(0).getAsInt());
        LinkedList<TreeNode> queue = new LinkedList<>();
        queue.add(root);
        int i = 1;
        while (!queue.isEmpty() && i < a.size()) {
            TreeNode node = queue.poll();
            if (i < a.size()) {
                JsonElement left = a.get(i++);
                if (!left.isJsonNull()) {
                    node.left = new TreeNode(left.getAsInt());
                    queue.add(node.left);
                }
            }
            if (i < a.size()) {
                JsonElement right = a.get(i++);
                if (!right.isJsonNull()) {
                    node.right = new TreeNode(right.getAsInt());
                    queue.add(node.right);
                }
            }
        }
        return root;
    }`,

	"convertTreeNodeToJson": `    static String convertTreeNodeToJson(TreeNode root) {
        if (root == null) return "[]";
        List<String> out = new ArrayList<>();
        LinkedList<TreeNode> queue = new LinkedList<>();
        queue.add(root);
        while (!queue.isEmpty()) {
            TreeNode node = queue.poll();
            if (node == null) {
                out.add("null");
                continue;
            }
            out.add(String.valueOf(node.val));
            queue.add(node.left);
            queue.add(node.right);
        }
        int end = out.size();
        while (end > 0 && out.get(end - 1).equals("null")) end--;
        return "[" + String.join(",", out.subList(0, end)) + "]";
    }`,

	"convertTreeNodeListToJson": `    static String convertTreeNodeListToJson(List<TreeNode> nodes) {
        if (nodes == null) return "null";
        StringBuilder b = new StringBuilder("[");
        for (int i = 0; i < nodes.size(); i++) {
            if (i > 0) b.append(",");
            b.append(convertTreeNodeToJson(nodes.get(i)));
        }
        return b.append("]").toString();
    }`,

	"convertTreeNodeArrayToJson": `    static String convertTreeNodeArrayToJson(TreeNode[] nodes) {
        if (nodes == null) return "null";
        StringBuilder b = new StringBuilder("[");
        for (int i = 0; i < nodes.length; i++) {
            if (i > 0) b.append(",");
            b.append(convertTreeNodeToJson(nodes[i]));
        }
        return b.append("]").toString();
    }`,

	"toTreeNodeArray": `    static TreeNode[] toTreeNodeArray(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray a = e.getAsJsonArray();
        TreeNode[] out = new TreeNode[a.size()];
        for (int i = 0; i < a.size(); i++) out[i] = buildTreeNode(a.get(i));
        return out;
    }`,

	"toTreeNodeList": `    static List<TreeNode> toTreeNodeList(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray a = e.getAsJsonArray();
        List<TreeNode> out = new ArrayList<>();
        for (int i = 0; i < a.size(); i++) out.add(buildTreeNode(a.get(i)));
        return out;
    }`,

	"buildNode": `    static Node buildNode(JsonElement e) {
        if (e == null || e.isJsonNull()) return null;
        JsonArray adj = e.getAsJsonArray();
        if (adj.size() == 0) return null;
        Node[] nodes = new Node[adj.size() + 1];
        for (int i = 1; i <= adj.size(); i++) nodes[i] = new Node(i);
        for (int i = 1; i <= adj.size(); i++) {
            JsonArray neighbors = adj.get(i - 1).getAsJsonArray();
            for (int j = 0; j < neighbors.size(); j++) {
                nodes[i].neighbors.add(nodes[neighbors.get(j).getAsInt()]);
            }
        }
        return nodes[1];
    }`,

	"convertNodeToJson": `    static String convertNodeToJson(Node node) {
        if (node == null) return "[]";
        Map<Integer, List<Integer>> adj = new HashMap<>();
        LinkedList<Node> queue = new LinkedList<>();
        Set<Integer> seen = new HashSet<>();
        queue.add(node);
        seen.add(node.val);
        int max = node.val;
        while (!queue.isEmpty()) {
            Node cur = queue.poll();
            max = Math.max(max, cur.val);
            List<Integer> labels = new ArrayList<>();
            for (Node nb : cur.neighbors) {
                labels.add(nb.val);
                max = Math.max(max, nb.val);
                if (seen.add(nb.val)) queue.add(nb);
            }
            adj.put(cur.val, labels);
        }
        StringBuilder b = new StringBuilder("[");
        for (int i = 1; i <= max; i++) {
            if (i > 1) b.append(",");
            b.append("[");
            List<Integer> labels = adj.getOrDefault(i, Collections.<Integer>emptyList());
            for (int j = 0; j < labels.size(); j++) {
                if (j > 0) b.append(",");
                b.append(labels.get(j));
            }
            b.append("]");
        }
        return b.append("]").toString();
    }`,
}
